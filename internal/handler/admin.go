package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-records/internal/service"
)

// AdminHandler exposes the admin view of the submission log: each
// submission joined with the linked user identity.  Routes using this
// handler sit behind JWT authentication and the ADMIN role gate.
type AdminHandler struct {
    Submissions *service.SubmissionService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(submissions *service.SubmissionService) *AdminHandler {
    if submissions == nil {
        panic("nil service passed to NewAdminHandler")
    }
    return &AdminHandler{Submissions: submissions}
}

type adminSubmissionResp struct {
    ID        string          `json:"id"`
    CreatedAt string          `json:"created_at"`
    Payload   json.RawMessage `json:"payload"`
    UserSub   *string         `json:"user_sub,omitempty"`
    UserEmail *string         `json:"user_email,omitempty"`
    UserName  *string         `json:"user_name,omitempty"`
}

func adminDetailToResp(d *service.SubmissionDetail) adminSubmissionResp {
    return adminSubmissionResp{
        ID:        d.Submission.ID,
        CreatedAt: isoUTC(d.Submission.CreatedAt),
        Payload:   d.Submission.Payload,
        UserSub:   d.UserSub,
        UserEmail: d.UserEmail,
        UserName:  d.UserName,
    }
}

// ListSubmissions handles GET /v1/admin/submissions.
func (h *AdminHandler) ListSubmissions(c echo.Context) error {
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

    details, err := h.Submissions.AdminList(ctx, limit)
    if err != nil {
        return writeServiceError(c, err)
    }
    out := make([]adminSubmissionResp, 0, len(details))
    for i := range details {
        out = append(out, adminDetailToResp(&details[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// GetSubmission handles GET /v1/admin/submissions/:id.
func (h *AdminHandler) GetSubmission(c echo.Context) error {
    id := c.Param("id")
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    detail, err := h.Submissions.AdminGet(ctx, id)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, adminDetailToResp(detail))
}
