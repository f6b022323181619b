package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-records/internal/service"
)

// dbTimeout bounds every database round-trip made by a handler.
const dbTimeout = 5 * time.Second

// writeServiceError maps the service error taxonomy onto HTTP status
// codes.  Validation is a caller error (400), a failed edit proof is
// 403, missing records are 404, lost update races are 409 and may be
// retried with fresh state, and anything else is a storage failure.
func writeServiceError(c echo.Context, err error) error {
    var ve *service.ValidationError
    if errors.As(err, &ve) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error(), "field": ve.Field})
    }
    var ae *service.AuthorizationError
    if errors.As(err, &ae) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": ae.Error()})
    }
    var ne *service.NotFoundError
    if errors.As(err, &ne) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": ne.Error()})
    }
    var ce *service.ConflictError
    if errors.As(err, &ce) {
        return c.JSON(http.StatusConflict, echo.Map{"error": ce.Error()})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage failure"})
}

// isoUTC renders a timestamp as RFC3339 in UTC for API responses.
func isoUTC(t time.Time) string {
    return t.UTC().Format(time.RFC3339)
}
