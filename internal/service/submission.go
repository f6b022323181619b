package service

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/student-records/internal/identity"
    "github.com/iliyamo/student-records/internal/model"
    "github.com/iliyamo/student-records/internal/repository"
)

// defaultListLimit bounds submission listings; also the ceiling for
// caller-supplied limits.
const defaultListLimit = 50

// SubmissionService is the append-only submission log.  Payloads are
// arbitrary JSON documents; no schema is enforced here beyond being
// well-formed JSON.  A submission may be linked to a user identity or
// stay anonymous.
type SubmissionService struct {
    submissions *repository.SubmissionRepo
    now         func() time.Time
}

// NewSubmissionService builds the submission log service.
func NewSubmissionService(submissions *repository.SubmissionRepo) *SubmissionService {
    return &SubmissionService{
        submissions: submissions,
        now:         func() time.Time { return time.Now().UTC() },
    }
}

// Append stores a new submission with a fresh random id and a server
// timestamp.  userSub is nil for anonymous submissions.
func (s *SubmissionService) Append(ctx context.Context, payload json.RawMessage, userSub *string) (*model.Submission, error) {
    if len(payload) == 0 || !json.Valid(payload) {
        return nil, &ValidationError{Field: "payload", Reason: "must be a JSON document"}
    }
    id, err := identity.NewRandomID()
    if err != nil {
        return nil, &StorageError{Op: "generate id", Err: err}
    }
    sub := model.Submission{
        ID:        id,
        GoogleSub: userSub,
        Payload:   payload,
        CreatedAt: s.now(),
    }
    if err := s.submissions.Insert(ctx, &sub); err != nil {
        return nil, &StorageError{Op: "insert submission", Err: err}
    }
    return &sub, nil
}

// ListRecent returns up to limit submissions, newest first.  A
// non-positive or oversized limit falls back to the default of 50.
func (s *SubmissionService) ListRecent(ctx context.Context, limit int) ([]model.Submission, error) {
    out, err := s.submissions.ListRecent(ctx, clampLimit(limit))
    if err != nil {
        return nil, &StorageError{Op: "list submissions", Err: err}
    }
    return out, nil
}

// Get fetches one submission by id.
func (s *SubmissionService) Get(ctx context.Context, id string) (*model.Submission, error) {
    sub, err := s.submissions.GetByID(ctx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, &NotFoundError{Resource: "submission", ID: id}
    }
    if err != nil {
        return nil, &StorageError{Op: "load submission", Err: err}
    }
    return sub, nil
}

// SubmissionDetail is the admin view of a submission: the raw row plus
// the linked user's identity fields and a resolved display name.
type SubmissionDetail struct {
    Submission model.Submission
    UserSub    *string
    UserEmail  *string
    UserName   *string
}

// AdminGet fetches one submission joined with its linked user.
func (s *SubmissionService) AdminGet(ctx context.Context, id string) (*SubmissionDetail, error) {
    sw, err := s.submissions.GetByIDWithUser(ctx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, &NotFoundError{Resource: "submission", ID: id}
    }
    if err != nil {
        return nil, &StorageError{Op: "load submission", Err: err}
    }
    return detailFrom(sw), nil
}

// AdminList returns up to limit submissions joined with their users,
// newest first.
func (s *SubmissionService) AdminList(ctx context.Context, limit int) ([]SubmissionDetail, error) {
    rows, err := s.submissions.ListRecentWithUser(ctx, clampLimit(limit))
    if err != nil {
        return nil, &StorageError{Op: "list submissions", Err: err}
    }
    out := make([]SubmissionDetail, 0, len(rows))
    for i := range rows {
        out = append(out, *detailFrom(&rows[i]))
    }
    return out, nil
}

// detailFrom resolves the display name for an admin view.  The stored
// user's name always wins; the self-reported name inside the payload
// (payload.identity.name) is only a fallback for anonymous submissions
// or users with no stored name.
func detailFrom(sw *repository.SubmissionWithUser) *SubmissionDetail {
    d := SubmissionDetail{
        Submission: sw.Submission,
        UserSub:    sw.UserSub,
        UserEmail:  sw.UserEmail,
        UserName:   sw.UserName,
    }
    if d.UserSub == nil {
        d.UserSub = sw.GoogleSub
    }
    if d.UserName == nil {
        if name := payloadIdentityName(sw.Payload); name != "" {
            d.UserName = &name
        }
    }
    return &d
}

// payloadIdentityName digs payload.identity.name out of a submission
// payload, returning "" when absent or not a string.
func payloadIdentityName(payload json.RawMessage) string {
    var doc struct {
        Identity struct {
            Name string `json:"name"`
        } `json:"identity"`
    }
    if err := json.Unmarshal(payload, &doc); err != nil {
        return ""
    }
    return strings.TrimSpace(doc.Identity.Name)
}

func clampLimit(limit int) int {
    if limit <= 0 || limit > defaultListLimit {
        return defaultListLimit
    }
    return limit
}
