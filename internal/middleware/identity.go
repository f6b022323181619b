package middleware

// identity.go defines the identity value shared between the JWT
// middleware and handlers.  The OAuth exchange happens outside this
// service; by the time a request reaches us the identity is already a
// signed bearer token whose claims we mirror here.

import "github.com/labstack/echo/v4"

// identityKey is the context key under which JWT middleware stores the
// verified identity.
const identityKey = "identity"

// Identity carries the verified claims of the calling user.
type Identity struct {
    Sub     string // provider subject, stable user key
    Email   string // may be empty
    Name    string // may be empty
    Picture string // may be empty
    Role    string // may be empty; "ADMIN" unlocks the admin group
}

// CurrentIdentity returns the identity stored by JWTAuth or
// OptionalJWT, or ok=false for anonymous requests.
func CurrentIdentity(c echo.Context) (Identity, bool) {
    v := c.Get(identityKey)
    if v == nil {
        return Identity{}, false
    }
    id, ok := v.(Identity)
    return id, ok
}
