package handler

import (
    "context"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/student-records/internal/config"
    "github.com/iliyamo/student-records/internal/identity"
    "github.com/iliyamo/student-records/internal/middleware"
    "github.com/iliyamo/student-records/internal/model"
    "github.com/iliyamo/student-records/internal/queue"
    "github.com/iliyamo/student-records/internal/service"
)

// StudentHandler exposes the student record endpoints.  The heavy
// lifting (authorization, snapshotting, version arithmetic) lives in
// the service; the handler binds requests, maps errors and keeps the
// response cache and audit queue in sync after writes.
type StudentHandler struct {
    Students *service.StudentService
    Rdb      *redis.Client      // may be nil; cache invalidation becomes a no-op
    CacheCfg config.CacheConfig // for computing invalidation keys
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(students *service.StudentService, rdb *redis.Client, cacheCfg config.CacheConfig) *StudentHandler {
    if students == nil {
        panic("nil service passed to NewStudentHandler")
    }
    return &StudentHandler{Students: students, Rdb: rdb, CacheCfg: cacheCfg}
}

// ----- DTOs -----

type createStudentReq struct {
    Dob   string  `json:"dob"`   // derived strategy only
    Phone string  `json:"phone"` // derived strategy only
    Name  *string `json:"name"`
}

type updateStudentReq struct {
    EditToken string  `json:"edit_token"` // random strategy proof
    Dob       string  `json:"dob"`        // derived strategy proof
    Phone     string  `json:"phone"`      // derived strategy proof
    Name      *string `json:"name"`
    NewDob    *string `json:"new_dob"`   // derived strategy: replacement dob
    NewPhone  *string `json:"new_phone"` // derived strategy: replacement phone
}

type studentResp struct {
    ID        string  `json:"id"`
    Dob       *string `json:"dob,omitempty"`
    Phone     *string `json:"phone,omitempty"`
    Name      *string `json:"name"`
    Version   uint32  `json:"version"`
    UpdatedAt string  `json:"updated_at"`
}

// studentCreatedResp is the creation response under the random
// strategy: the only place the plain edit token ever appears.
type studentCreatedResp struct {
    studentResp
    EditToken string `json:"edit_token"`
}

type historyEntryResp struct {
    HistoryID uint64          `json:"history_id"`
    StudentID string          `json:"student_id"`
    Version   uint32          `json:"version"`
    Snapshot  json.RawMessage `json:"snapshot"`
    ChangedAt string          `json:"changed_at"`
}

func studentToResp(s *model.Student) studentResp {
    return studentResp{
        ID:        s.ID,
        Dob:       s.Dob,
        Phone:     s.Phone,
        Name:      s.Name,
        Version:   s.Version,
        UpdatedAt: isoUTC(s.UpdatedAt),
    }
}

// Create handles POST /v1/students.  Under the random strategy it
// always creates and returns the edit token exactly once.  Under the
// derived strategy it is an upsert: the (dob, phone) pair either
// creates the record or, when it already exists, applies an update
// with the pair itself as the proof of edit rights.
func (h *StudentHandler) Create(c echo.Context) error {
    var req createStudentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if h.Students.Strategy() == identity.StrategyRandom {
        res, err := h.Students.Create(ctx, service.CreateInput{Name: req.Name})
        if err != nil {
            return writeServiceError(c, err)
        }
        return c.JSON(http.StatusCreated, studentCreatedResp{
            studentResp: studentToResp(&res.Student),
            EditToken:   res.EditToken,
        })
    }

    res, err := h.Students.Upsert(ctx, service.UpsertInput{
        Dob:   req.Dob,
        Phone: req.Phone,
        Name:  req.Name,
    })
    if err != nil {
        return writeServiceError(c, err)
    }
    if res.Created {
        return c.JSON(http.StatusCreated, studentToResp(&res.Student))
    }
    h.afterUpdate(&res.Student)
    return c.JSON(http.StatusOK, studentToResp(&res.Student))
}

// Get handles GET /v1/students/:id.  The edit token (or its hash)
// never appears in read responses.
func (h *StudentHandler) Get(c echo.Context) error {
    id := c.Param("id")
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    st, err := h.Students.Get(ctx, id)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, studentToResp(st))
}

// Update handles PUT /v1/students/:id.  The body must carry the proof
// matching the deployment's strategy: the edit token (random) or the
// dob+phone pair resolving to :id (derived).  A 409 means a concurrent
// writer advanced the record first; retry with fresh state.
func (h *StudentHandler) Update(c echo.Context) error {
    id := c.Param("id")
    var req updateStudentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    in := service.UpdateInput{
        EditToken: req.EditToken,
        Name:      req.Name,
        Dob:       req.NewDob,
        Phone:     req.NewPhone,
    }
    if req.Dob != "" {
        in.ProofDob = &req.Dob
    }
    if req.Phone != "" {
        in.ProofPhone = &req.Phone
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    st, err := h.Students.Update(ctx, id, in)
    if err != nil {
        return writeServiceError(c, err)
    }
    h.afterUpdate(st)
    return c.JSON(http.StatusOK, studentToResp(st))
}

// History handles GET /v1/students/:id/history, returning snapshots
// ordered by version ascending.
func (h *StudentHandler) History(c echo.Context) error {
    id := c.Param("id")
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    entries, err := h.Students.History(ctx, id)
    if err != nil {
        return writeServiceError(c, err)
    }
    out := make([]historyEntryResp, 0, len(entries))
    for _, e := range entries {
        out = append(out, historyEntryResp{
            HistoryID: e.HistoryID,
            StudentID: e.StudentID,
            Version:   e.Version,
            Snapshot:  e.Snapshot,
            ChangedAt: isoUTC(e.ChangedAt),
        })
    }
    return c.JSON(http.StatusOK, out)
}

// afterUpdate drops the cached read of the student and publishes the
// audit event.  Both are best-effort and must not delay or fail the
// request, so the publish runs detached from the request context.
func (h *StudentHandler) afterUpdate(st *model.Student) {
    middleware.InvalidateStudent(context.Background(), h.Rdb, h.CacheCfg, st.ID)
    ev := queue.StudentUpdatedEvent{
        StudentID:   st.ID,
        PrevVersion: st.Version - 1,
        Version:     st.Version,
        UpdatedAt:   isoUTC(st.UpdatedAt),
    }
    go func() {
        _ = queue.PublishStudentUpdated(context.Background(), ev)
    }()
}
