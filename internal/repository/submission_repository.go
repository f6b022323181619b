package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/student-records/internal/model"
)

// SubmissionRepo provides access to the append-only `submissions`
// table.  Submissions are immutable: there is an insert path and read
// paths, nothing else.
type SubmissionRepo struct {
    db *sql.DB
}

// NewSubmissionRepo returns a new SubmissionRepo bound to the given database.
func NewSubmissionRepo(db *sql.DB) *SubmissionRepo { return &SubmissionRepo{db: db} }

// Insert appends one submission row.
func (r *SubmissionRepo) Insert(ctx context.Context, s *model.Submission) error {
    const q = `INSERT INTO submissions (id, google_sub, payload, created_at)
               VALUES (?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, s.ID, s.GoogleSub, []byte(s.Payload), s.CreatedAt.UTC())
    if isDuplicateKey(err) {
        return ErrDuplicateKey
    }
    return err
}

// GetByID fetches one submission.  Returns sql.ErrNoRows when absent.
func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
    const q = `SELECT id, google_sub, payload, created_at FROM submissions WHERE id = ?`
    return scanSubmission(r.db.QueryRowContext(ctx, q, id))
}

// ListRecent returns up to limit submissions, newest first.
func (r *SubmissionRepo) ListRecent(ctx context.Context, limit int) ([]model.Submission, error) {
    const q = `SELECT id, google_sub, payload, created_at
               FROM submissions
               ORDER BY created_at DESC
               LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Submission, 0)
    for rows.Next() {
        s, err := scanSubmissionRows(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// SubmissionWithUser joins a submission with the linked user's
// identity fields, when a link exists.  Used by the admin views.
type SubmissionWithUser struct {
    model.Submission
    UserSub   *string
    UserEmail *string
    UserName  *string
}

const submissionUserQuery = `SELECT s.id, s.google_sub, s.payload, s.created_at,
                                    u.google_sub, u.email, u.name
                             FROM submissions s
                             LEFT JOIN users u ON u.google_sub = s.google_sub`

// GetByIDWithUser fetches one submission joined with its user, if any.
// Returns sql.ErrNoRows when the submission does not exist.
func (r *SubmissionRepo) GetByIDWithUser(ctx context.Context, id string) (*SubmissionWithUser, error) {
    row := r.db.QueryRowContext(ctx, submissionUserQuery+` WHERE s.id = ?`, id)
    return scanSubmissionWithUser(row)
}

// ListRecentWithUser returns up to limit submissions joined with their
// users, newest first.
func (r *SubmissionRepo) ListRecentWithUser(ctx context.Context, limit int) ([]SubmissionWithUser, error) {
    q := submissionUserQuery + ` ORDER BY s.created_at DESC LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]SubmissionWithUser, 0)
    for rows.Next() {
        var sw SubmissionWithUser
        var sub, userSub, userEmail, userName sql.NullString
        var payload []byte
        if err := rows.Scan(&sw.ID, &sub, &payload, &sw.CreatedAt, &userSub, &userEmail, &userName); err != nil {
            return nil, err
        }
        sw.Payload = payload
        assignNullable(&sw, sub, userSub, userEmail, userName)
        out = append(out, sw)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

func scanSubmission(row *sql.Row) (*model.Submission, error) {
    var s model.Submission
    var sub sql.NullString
    var payload []byte
    if err := row.Scan(&s.ID, &sub, &payload, &s.CreatedAt); err != nil {
        return nil, err
    }
    s.Payload = payload
    if sub.Valid {
        v := sub.String
        s.GoogleSub = &v
    }
    return &s, nil
}

func scanSubmissionRows(rows *sql.Rows) (*model.Submission, error) {
    var s model.Submission
    var sub sql.NullString
    var payload []byte
    if err := rows.Scan(&s.ID, &sub, &payload, &s.CreatedAt); err != nil {
        return nil, err
    }
    s.Payload = payload
    if sub.Valid {
        v := sub.String
        s.GoogleSub = &v
    }
    return &s, nil
}

func scanSubmissionWithUser(row *sql.Row) (*SubmissionWithUser, error) {
    var sw SubmissionWithUser
    var sub, userSub, userEmail, userName sql.NullString
    var payload []byte
    if err := row.Scan(&sw.ID, &sub, &payload, &sw.CreatedAt, &userSub, &userEmail, &userName); err != nil {
        return nil, err
    }
    sw.Payload = payload
    assignNullable(&sw, sub, userSub, userEmail, userName)
    return &sw, nil
}

func assignNullable(sw *SubmissionWithUser, sub, userSub, userEmail, userName sql.NullString) {
    if sub.Valid {
        v := sub.String
        sw.GoogleSub = &v
    }
    if userSub.Valid {
        v := userSub.String
        sw.UserSub = &v
    }
    if userEmail.Valid {
        v := userEmail.String
        sw.UserEmail = &v
    }
    if userName.Valid {
        v := userName.String
        sw.UserName = &v
    }
}
