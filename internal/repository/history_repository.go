package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/student-records/internal/model"
)

// HistoryRepo provides access to the append-only `student_history`
// table.  Rows are written exactly once per update, inside the same
// transaction as the student update itself, and are never modified
// afterwards.
type HistoryRepo struct {
    db *sql.DB
}

// NewHistoryRepo returns a new HistoryRepo bound to the given database.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// InsertTx appends one history row within the provided transaction.
// The (student_id, version) pair is unique; a violation means a
// concurrent writer already snapshotted this version and is reported
// as ErrDuplicateKey so the caller can roll back and retry.
func (r *HistoryRepo) InsertTx(ctx context.Context, tx *sql.Tx, h *model.StudentHistory) error {
    const q = `INSERT INTO student_history (student_id, version, snapshot, changed_at)
               VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, h.StudentID, h.Version, []byte(h.Snapshot), h.ChangedAt.UTC())
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicateKey
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    h.HistoryID = uint64(id)
    return nil
}

// ListByStudent returns all history rows for a student ordered by
// version ascending, i.e. oldest snapshot first.  An empty slice is
// returned when the student has never been updated.
func (r *HistoryRepo) ListByStudent(ctx context.Context, studentID string) ([]model.StudentHistory, error) {
    const q = `SELECT history_id, student_id, version, snapshot, changed_at
               FROM student_history
               WHERE student_id = ?
               ORDER BY version ASC`
    rows, err := r.db.QueryContext(ctx, q, studentID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    entries := make([]model.StudentHistory, 0)
    for rows.Next() {
        var h model.StudentHistory
        var snapshot []byte
        if err := rows.Scan(&h.HistoryID, &h.StudentID, &h.Version, &snapshot, &h.ChangedAt); err != nil {
            return nil, err
        }
        h.Snapshot = snapshot
        entries = append(entries, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return entries, nil
}

// CountByStudent returns the number of history rows for a student.
// For a consistent record this always equals the live version minus 1.
func (r *HistoryRepo) CountByStudent(ctx context.Context, studentID string) (int64, error) {
    var n int64
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM student_history WHERE student_id = ?`, studentID).Scan(&n)
    return n, err
}
