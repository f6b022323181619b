package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/student-records/internal/middleware"
    "github.com/iliyamo/student-records/internal/repository"
)

func newTestIdentityHandler(t *testing.T) (*IdentityHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewIdentityHandler(repository.NewUserRepo(db)), mock
}

func identityContext(identity *middleware.Identity) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if identity != nil {
        c.Set("identity", *identity)
    }
    return c, rec
}

func userRows() *sqlmock.Rows {
    return sqlmock.NewRows([]string{"google_sub", "email", "name", "picture", "created_at", "last_login_at"})
}

func TestMe_PrefersStoredUser(t *testing.T) {
    h, mock := newTestIdentityHandler(t)

    mock.ExpectQuery("FROM users WHERE google_sub = \\?").
        WithArgs("google-sub-1").
        WillReturnRows(userRows().
            AddRow("google-sub-1", "stored@example.com", "Stored Name", nil, testNow, testNow))

    c, rec := identityContext(&middleware.Identity{Sub: "google-sub-1", Email: "claim@example.com", Name: "Claim Name"})
    require.NoError(t, h.Me(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "stored@example.com", body["email"])
    assert.Equal(t, "Stored Name", body["name"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMe_FallsBackToClaims(t *testing.T) {
    h, mock := newTestIdentityHandler(t)

    mock.ExpectQuery("FROM users WHERE google_sub = \\?").
        WithArgs("google-sub-2").
        WillReturnRows(userRows())

    c, rec := identityContext(&middleware.Identity{Sub: "google-sub-2", Name: "Claim Name"})
    require.NoError(t, h.Me(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "google-sub-2", body["sub"])
    assert.Equal(t, "Claim Name", body["name"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMe_Unauthenticated(t *testing.T) {
    h, mock := newTestIdentityHandler(t)

    c, rec := identityContext(nil)
    require.NoError(t, h.Me(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostSession_UpsertsClaims(t *testing.T) {
    h, mock := newTestIdentityHandler(t)

    mock.ExpectExec("INSERT INTO users").
        WithArgs("google-sub-1", "u1@example.com", "User One", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(0, 1))

    c, rec := identityContext(&middleware.Identity{Sub: "google-sub-1", Email: "u1@example.com", Name: "User One"})
    require.NoError(t, h.PostSession(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}
