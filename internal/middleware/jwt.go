package middleware // middleware contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that requires a valid Bearer
// token signed with the given secret and stores the verified Identity
// in the request context.  Wrap it around routes that must know who
// the caller is (/v1/me, session upsert, the admin group).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            id, err := parseIdentity(strings.TrimPrefix(auth, "Bearer "), secret)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(identityKey, id)
            return next(c)
        }
    }
}

// OptionalJWT attaches an Identity when a Bearer token is present and
// lets anonymous requests through untouched.  A token that is present
// but invalid is still rejected: silently downgrading a broken token
// to anonymous would hide client bugs.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if auth == "" {
                return next(c)
            }
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "malformed authorization header"})
            }
            id, err := parseIdentity(strings.TrimPrefix(auth, "Bearer "), secret)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(identityKey, id)
            return next(c)
        }
    }
}

// parseIdentity validates an HS256 token and extracts the identity
// claims.  The subject claim is mandatory; everything else is
// best-effort mirroring of whatever the identity provider put there.
func parseIdentity(raw, secret string) (Identity, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return Identity{}, echo.ErrUnauthorized
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Identity{}, echo.ErrUnauthorized
    }
    id := Identity{
        Sub:     stringClaim(claims, "sub"),
        Email:   stringClaim(claims, "email"),
        Name:    stringClaim(claims, "name"),
        Picture: stringClaim(claims, "picture"),
        Role:    stringClaim(claims, "role"),
    }
    if id.Sub == "" {
        return Identity{}, echo.ErrUnauthorized
    }
    return id, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
    if v, ok := claims[key].(string); ok {
        return v
    }
    return ""
}
