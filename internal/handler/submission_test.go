package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/student-records/internal/middleware"
    "github.com/iliyamo/student-records/internal/repository"
    "github.com/iliyamo/student-records/internal/service"
)

func newTestSubmissionHandler(t *testing.T) (*SubmissionHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    svc := service.NewSubmissionService(repository.NewSubmissionRepo(db))
    return NewSubmissionHandler(svc), mock
}

func TestSubmissionCreate_Anonymous(t *testing.T) {
    h, mock := newTestSubmissionHandler(t)

    mock.ExpectExec("INSERT INTO submissions").
        WithArgs(sqlmock.AnyArg(), nil, []byte(`{"answers":[1,2]}`), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(0, 1))

    rec := doJSON(t, h.Create, http.MethodPost, "/v1/submissions",
        `{"payload":{"answers":[1,2]}}`, "")
    assert.Equal(t, http.StatusCreated, rec.Code)

    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.NotEmpty(t, body["id"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionCreate_LinksAuthenticatedCaller(t *testing.T) {
    h, mock := newTestSubmissionHandler(t)

    mock.ExpectExec("INSERT INTO submissions").
        WithArgs(sqlmock.AnyArg(), "google-sub-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(0, 1))

    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/submissions", strings.NewReader(`{"payload":{}}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("identity", middleware.Identity{Sub: "google-sub-1"})

    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionCreate_RejectsMissingPayload(t *testing.T) {
    h, mock := newTestSubmissionHandler(t)

    rec := doJSON(t, h.Create, http.MethodPost, "/v1/submissions", `{}`, "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionList_BadLimit(t *testing.T) {
    h, mock := newTestSubmissionHandler(t)

    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/submissions?limit=abc", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    require.NoError(t, h.List(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionGet_Found(t *testing.T) {
    h, mock := newTestSubmissionHandler(t)

    mock.ExpectQuery("FROM submissions WHERE id = \\?").
        WithArgs("sub-1").
        WillReturnRows(sqlmock.NewRows([]string{"id", "google_sub", "payload", "created_at"}).
            AddRow("sub-1", nil, []byte(`{"answers":[1]}`), testNow))

    rec := doJSON(t, h.Get, http.MethodGet, "/v1/submissions/sub-1", "", "sub-1")
    assert.Equal(t, http.StatusOK, rec.Code)

    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "sub-1", body["id"])
    assert.NoError(t, mock.ExpectationsWereMet())
}
