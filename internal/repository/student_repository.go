package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/student-records/internal/model"
)

// StudentRepo provides data access to the `students` table.  All
// timestamps are stored in UTC.  Mutations that must be atomic with a
// history append take an explicit *sql.Tx; the caller owns commit and
// rollback.
type StudentRepo struct {
    db *sql.DB
}

// NewStudentRepo returns a new StudentRepo bound to the given database.
func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// that span students and student_history.
func (r *StudentRepo) DB() *sql.DB { return r.db }

const studentColumns = `id, dob, phone, name, edit_token_hash, version, updated_at`

// scanStudent reads one row into a model.Student, converting nullable
// columns to pointers.
func scanStudent(row interface{ Scan(...any) error }) (*model.Student, error) {
    var s model.Student
    var dob, phone, name, tokenHash sql.NullString
    if err := row.Scan(&s.ID, &dob, &phone, &name, &tokenHash, &s.Version, &s.UpdatedAt); err != nil {
        return nil, err
    }
    if dob.Valid {
        v := dob.String
        s.Dob = &v
    }
    if phone.Valid {
        v := phone.String
        s.Phone = &v
    }
    if name.Valid {
        v := name.String
        s.Name = &v
    }
    if tokenHash.Valid {
        v := tokenHash.String
        s.EditTokenHash = &v
    }
    return &s, nil
}

// GetByID fetches a student by primary key.  Returns sql.ErrNoRows
// when no such record exists.
func (r *StudentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
    const q = `SELECT ` + studentColumns + ` FROM students WHERE id = ?`
    return scanStudent(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx fetches a student inside a transaction with a row lock
// (SELECT ... FOR UPDATE) so that concurrent read-modify-write cycles
// on the same id serialize at the database.
func (r *StudentRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Student, error) {
    const q = `SELECT ` + studentColumns + ` FROM students WHERE id = ? FOR UPDATE`
    return scanStudent(tx.QueryRowContext(ctx, q, id))
}

// Create inserts a brand-new student at version 1.  A unique-key
// violation (two writers racing to create the same derived id) is
// reported as ErrDuplicateKey.
func (r *StudentRepo) Create(ctx context.Context, s *model.Student) error {
    const q = `INSERT INTO students (id, dob, phone, name, edit_token_hash, version, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, s.ID, s.Dob, s.Phone, s.Name, s.EditTokenHash, s.Version, s.UpdatedAt.UTC())
    if isDuplicateKey(err) {
        return ErrDuplicateKey
    }
    return err
}

// CreateTx is Create within an existing transaction.
func (r *StudentRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Student) error {
    const q = `INSERT INTO students (id, dob, phone, name, edit_token_hash, version, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, q, s.ID, s.Dob, s.Phone, s.Name, s.EditTokenHash, s.Version, s.UpdatedAt.UTC())
    if isDuplicateKey(err) {
        return ErrDuplicateKey
    }
    return err
}

// UpdateTx persists the new state of a student with a compare-and-swap
// on the version column.  The UPDATE only matches when the row still
// holds expectedVersion; zero affected rows means another writer got
// there first and ErrVersionConflict is returned.  The caller must
// roll back the surrounding transaction in that case.
func (r *StudentRepo) UpdateTx(ctx context.Context, tx *sql.Tx, s *model.Student, expectedVersion uint32) error {
    const q = `UPDATE students
               SET dob = ?, phone = ?, name = ?, version = ?, updated_at = ?
               WHERE id = ? AND version = ?`
    res, err := tx.ExecContext(ctx, q, s.Dob, s.Phone, s.Name, s.Version, s.UpdatedAt.UTC(), s.ID, expectedVersion)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrVersionConflict
    }
    return nil
}
