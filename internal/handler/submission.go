package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-records/internal/middleware"
    "github.com/iliyamo/student-records/internal/model"
    "github.com/iliyamo/student-records/internal/queue"
    "github.com/iliyamo/student-records/internal/service"
)

// SubmissionHandler exposes the public submission log endpoints.
type SubmissionHandler struct {
    Submissions *service.SubmissionService
}

// NewSubmissionHandler constructs a SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
    if submissions == nil {
        panic("nil service passed to NewSubmissionHandler")
    }
    return &SubmissionHandler{Submissions: submissions}
}

// ----- DTOs -----

type submissionReq struct {
    Payload json.RawMessage `json:"payload"`
}

type submissionResp struct {
    ID        string          `json:"id"`
    CreatedAt string          `json:"created_at"`
    Payload   json.RawMessage `json:"payload"`
}

func submissionToResp(s *model.Submission) submissionResp {
    return submissionResp{
        ID:        s.ID,
        CreatedAt: isoUTC(s.CreatedAt),
        Payload:   s.Payload,
    }
}

// Create handles POST /v1/submissions.  The payload is an arbitrary
// JSON document; when the caller presented a bearer token the
// submission is linked to that identity, otherwise it stays anonymous.
func (h *SubmissionHandler) Create(c echo.Context) error {
    var req submissionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    var userSub *string
    if id, ok := middleware.CurrentIdentity(c); ok {
        sub := id.Sub
        userSub = &sub
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    sub, err := h.Submissions.Append(ctx, req.Payload, userSub)
    if err != nil {
        return writeServiceError(c, err)
    }

    ev := queue.SubmissionReceivedEvent{
        SubmissionID: sub.ID,
        ReceivedAt:   isoUTC(sub.CreatedAt),
    }
    if sub.GoogleSub != nil {
        ev.UserSub = *sub.GoogleSub
    }
    go func() {
        _ = queue.PublishSubmissionReceived(context.Background(), ev)
    }()

    return c.JSON(http.StatusCreated, submissionToResp(sub))
}

// List handles GET /v1/submissions.  Returns the most recent
// submissions, newest first, bounded by the optional ?limit parameter
// (default and ceiling 50).
func (h *SubmissionHandler) List(c echo.Context) error {
    limit := 0
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
        }
        limit = n
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    subs, err := h.Submissions.ListRecent(ctx, limit)
    if err != nil {
        return writeServiceError(c, err)
    }
    out := make([]submissionResp, 0, len(subs))
    for i := range subs {
        out = append(out, submissionToResp(&subs[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/submissions/:id.
func (h *SubmissionHandler) Get(c echo.Context) error {
    id := c.Param("id")
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    sub, err := h.Submissions.Get(ctx, id)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, submissionToResp(sub))
}
