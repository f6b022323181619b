package repository

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/student-records/internal/model"
)

var repoNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newMockDB(t *testing.T) (*StudentRepo, *HistoryRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewStudentRepo(db), NewHistoryRepo(db), mock
}

func TestCountByStudent_TrailsLiveVersionByOne(t *testing.T) {
    students, history, mock := newMockDB(t)

    mock.ExpectQuery("FROM students WHERE id = \\?").
        WithArgs("abc123").
        WillReturnRows(sqlmock.NewRows([]string{"id", "dob", "phone", "name", "edit_token_hash", "version", "updated_at"}).
            AddRow("abc123", nil, nil, "Alicia", nil, 4, repoNow))
    mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM student_history").
        WithArgs("abc123").
        WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))

    st, err := students.GetByID(context.Background(), "abc123")
    require.NoError(t, err)
    n, err := history.CountByStudent(context.Background(), "abc123")
    require.NoError(t, err)

    // every committed update writes exactly one snapshot
    assert.Equal(t, int64(st.Version)-1, n)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTx_DuplicateVersionMapped(t *testing.T) {
    _, history, mock := newMockDB(t)

    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO student_history").
        WithArgs("abc123", 3, []byte(`{}`), repoNow).
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'abc123-3' for key 'uq_student_version'"))

    tx, err := history.db.Begin()
    require.NoError(t, err)

    h := model.StudentHistory{StudentID: "abc123", Version: 3, Snapshot: []byte(`{}`), ChangedAt: repoNow}
    err = history.InsertTx(context.Background(), tx, &h)
    assert.ErrorIs(t, err, ErrDuplicateKey)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStudent_OrderedOldestFirst(t *testing.T) {
    _, history, mock := newMockDB(t)

    mock.ExpectQuery("ORDER BY version ASC").
        WithArgs("abc123").
        WillReturnRows(sqlmock.NewRows([]string{"history_id", "student_id", "version", "snapshot", "changed_at"}).
            AddRow(1, "abc123", 1, []byte(`{"version":1}`), repoNow).
            AddRow(2, "abc123", 2, []byte(`{"version":2}`), repoNow))

    entries, err := history.ListByStudent(context.Background(), "abc123")
    require.NoError(t, err)
    require.Len(t, entries, 2)
    assert.Equal(t, uint32(1), entries[0].Version)
    assert.Equal(t, uint32(2), entries[1].Version)
    assert.NoError(t, mock.ExpectationsWereMet())
}
