package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/student-records/internal/model"
)

// UserRepo provides access to the `users` table, the mirror of
// third-party identity claims.  Rows are keyed by the provider's
// subject; mutable claim fields are refreshed wholesale on every
// session upsert.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Upsert inserts the user on first sight or refreshes email, name,
// picture and last_login_at on subsequent logins.  created_at is only
// written on the initial insert.
func (r *UserRepo) Upsert(ctx context.Context, u *model.User) error {
    const q = `INSERT INTO users (google_sub, email, name, picture, created_at, last_login_at)
               VALUES (?, ?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE
                   email = VALUES(email),
                   name = VALUES(name),
                   picture = VALUES(picture),
                   last_login_at = VALUES(last_login_at)`
    _, err := r.db.ExecContext(ctx, q,
        u.GoogleSub, u.Email, u.Name, u.Picture, u.CreatedAt.UTC(), u.LastLoginAt.UTC())
    return err
}

// GetBySub fetches a user by the provider subject.  Returns
// sql.ErrNoRows when the subject has never logged in.
func (r *UserRepo) GetBySub(ctx context.Context, sub string) (*model.User, error) {
    const q = `SELECT google_sub, email, name, picture, created_at, last_login_at
               FROM users WHERE google_sub = ?`
    var u model.User
    var email, name, picture sql.NullString
    err := r.db.QueryRowContext(ctx, q, sub).Scan(
        &u.GoogleSub, &email, &name, &picture, &u.CreatedAt, &u.LastLoginAt)
    if err != nil {
        return nil, err
    }
    if email.Valid {
        v := email.String
        u.Email = &v
    }
    if name.Valid {
        v := name.String
        u.Name = &v
    }
    if picture.Valid {
        v := picture.String
        u.Picture = &v
    }
    return &u, nil
}
