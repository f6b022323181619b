package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-records/internal/middleware"
    "github.com/iliyamo/student-records/internal/model"
    "github.com/iliyamo/student-records/internal/repository"
)

// IdentityHandler mirrors third-party identity claims into the users
// table.  The OAuth exchange itself happens in front of this service;
// callers arrive here with an already verified bearer token.
type IdentityHandler struct {
    Users *repository.UserRepo
}

// NewIdentityHandler constructs an IdentityHandler.
func NewIdentityHandler(users *repository.UserRepo) *IdentityHandler {
    if users == nil {
        panic("nil repository passed to NewIdentityHandler")
    }
    return &IdentityHandler{Users: users}
}

type identityResp struct {
    Sub     string `json:"sub"`
    Email   string `json:"email,omitempty"`
    Name    string `json:"name,omitempty"`
    Picture string `json:"picture,omitempty"`
}

// PostSession handles POST /v1/auth/session.  It upserts the caller's
// user row, refreshing the claim mirrors (email, name, picture) and
// last_login_at on every call, matching how the identity provider's
// latest claims always win.
func (h *IdentityHandler) PostSession(c echo.Context) error {
    id, ok := middleware.CurrentIdentity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not logged in"})
    }
    now := time.Now().UTC()
    u := model.User{
        GoogleSub:   id.Sub,
        CreatedAt:   now,
        LastLoginAt: now,
    }
    if id.Email != "" {
        u.Email = &id.Email
    }
    if id.Name != "" {
        u.Name = &id.Name
    }
    if id.Picture != "" {
        u.Picture = &id.Picture
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Users.Upsert(ctx, &u); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save user failed"})
    }
    return c.JSON(http.StatusOK, identityResp{
        Sub:     id.Sub,
        Email:   id.Email,
        Name:    id.Name,
        Picture: id.Picture,
    })
}

// Me handles GET /v1/me.  The stored user row is the source of truth;
// the token's claims are only echoed for callers that have never
// posted a session.
func (h *IdentityHandler) Me(c echo.Context) error {
    id, ok := middleware.CurrentIdentity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not logged in"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    u, err := h.Users.GetBySub(ctx, id.Sub)
    if errors.Is(err, sql.ErrNoRows) {
        return c.JSON(http.StatusOK, identityResp{
            Sub:     id.Sub,
            Email:   id.Email,
            Name:    id.Name,
            Picture: id.Picture,
        })
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, identityResp{
        Sub:     u.GoogleSub,
        Email:   deref(u.Email),
        Name:    deref(u.Name),
        Picture: deref(u.Picture),
    })
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}
