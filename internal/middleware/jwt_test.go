package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
    t.Helper()
    tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    require.NoError(t, err)
    return tok
}

func runWith(mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, *Identity) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if authHeader != "" {
        req.Header.Set("Authorization", authHeader)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    var seen *Identity
    handler := mw(func(c echo.Context) error {
        if id, ok := CurrentIdentity(c); ok {
            seen = &id
        }
        return c.NoContent(http.StatusOK)
    })
    _ = handler(c)
    return rec, seen
}

func TestJWTAuth_ValidToken(t *testing.T) {
    tok := signToken(t, jwt.MapClaims{"sub": "u1", "email": "u1@example.com", "role": "ADMIN"}, testSecret)
    rec, id := runWith(JWTAuth(testSecret), "Bearer "+tok)
    assert.Equal(t, http.StatusOK, rec.Code)
    require.NotNil(t, id)
    assert.Equal(t, "u1", id.Sub)
    assert.Equal(t, "u1@example.com", id.Email)
    assert.Equal(t, "ADMIN", id.Role)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
    rec, id := runWith(JWTAuth(testSecret), "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Nil(t, id)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
    tok := signToken(t, jwt.MapClaims{"sub": "u1"}, "other-secret")
    rec, id := runWith(JWTAuth(testSecret), "Bearer "+tok)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Nil(t, id)
}

func TestJWTAuth_MissingSub(t *testing.T) {
    tok := signToken(t, jwt.MapClaims{"email": "u1@example.com"}, testSecret)
    rec, _ := runWith(JWTAuth(testSecret), "Bearer "+tok)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWT_AnonymousPasses(t *testing.T) {
    rec, id := runWith(OptionalJWT(testSecret), "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Nil(t, id)
}

func TestOptionalJWT_InvalidTokenRejected(t *testing.T) {
    rec, _ := runWith(OptionalJWT(testSecret), "Bearer not-a-token")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWT_ValidTokenAttachesIdentity(t *testing.T) {
    tok := signToken(t, jwt.MapClaims{"sub": "u2"}, testSecret)
    rec, id := runWith(OptionalJWT(testSecret), "Bearer "+tok)
    assert.Equal(t, http.StatusOK, rec.Code)
    require.NotNil(t, id)
    assert.Equal(t, "u2", id.Sub)
}

func TestRequireRole_Gates(t *testing.T) {
    e := echo.New()

    run := func(identity *Identity) int {
        req := httptest.NewRequest(http.MethodGet, "/", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        if identity != nil {
            c.Set("identity", *identity)
        }
        h := RequireRole("ADMIN")(func(c echo.Context) error {
            return c.NoContent(http.StatusOK)
        })
        _ = h(c)
        return rec.Code
    }

    assert.Equal(t, http.StatusOK, run(&Identity{Sub: "u1", Role: "ADMIN"}))
    assert.Equal(t, http.StatusForbidden, run(&Identity{Sub: "u2", Role: "USER"}))
    assert.Equal(t, http.StatusForbidden, run(nil))
}
