package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/student-records/internal/config"
)

// cachedResponse is the envelope stored in Redis for one cached GET.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// cacheKey builds a stable key from the concrete request path and
// query.  The raw path (not the route pattern) keeps entries for
// /v1/students/aaa and /v1/students/bbb apart.
func cacheKey(prefix, path, query string) string {
    sum := sha1.Sum([]byte(path + "?" + query))
    return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// studentReadPrefix covers the student record reads, which take no
// query parameters.
const studentReadPrefix = "/v1/students/"

// requestCacheKey keys a request for the response cache.  Student
// reads ignore the query string: the endpoint does not vary on it, and
// folding stray queries into one entry lets InvalidateStudent drop the
// only key that can exist for the record.
func requestCacheKey(prefix string, u *url.URL) string {
    query := u.RawQuery
    if strings.HasPrefix(u.Path, studentReadPrefix) {
        query = ""
    }
    return cacheKey(prefix, u.Path, query)
}

// StudentCacheKey returns the cache key for the plain GET of one
// student, so the update handler can invalidate it.
func StudentCacheKey(cfg config.CacheConfig, id string) string {
    return cacheKey(cfg.Prefix, "/v1/students/"+id, "")
}

// InvalidateStudent drops the cached GET response for a student.  Call
// it after every successful update so readers never see a stale
// version behind the TTL.
func InvalidateStudent(ctx context.Context, rdb *redis.Client, cfg config.CacheConfig, id string) {
    if rdb == nil || !cfg.Enabled {
        return
    }
    _ = rdb.Del(ctx, StudentCacheKey(cfg, id)).Err()
}

// bodyCapture duplicates the response body up to a limit while still
// streaming it to the client.
type bodyCapture struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    overflow bool
    limit    int
}

func (w *bodyCapture) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.buf.Len()+len(b) <= w.limit {
            w.buf.Write(b)
        } else {
            w.overflow = true
        }
    }
    return w.ResponseWriter.Write(b)
}

// ResponseCache returns a middleware that serves GET responses from
// Redis for the configured TTL.  Requests carrying an Authorization
// header bypass the cache entirely so personalized responses are never
// shared.  Only 200 responses within the size limit are stored.  With
// caching disabled or Redis unavailable the middleware is a no-op.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            r := c.Request()
            if r.Method != http.MethodGet || r.Header.Get("Authorization") != "" {
                return next(c)
            }
            key := requestCacheKey(cfg.Prefix, r.URL)

            if raw, err := rdb.Get(r.Context(), key).Bytes(); err == nil {
                var cached cachedResponse
                if json.Unmarshal(raw, &cached) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(cached.Status, cached.ContentType, cached.Body)
                }
            }

            capture := &bodyCapture{
                ResponseWriter: c.Response().Writer,
                status:         http.StatusOK,
                limit:          cfg.MaxBodyBytes,
            }
            c.Response().Writer = capture
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if capture.status == http.StatusOK && !capture.overflow {
                raw, err := json.Marshal(cachedResponse{
                    Status:      capture.status,
                    ContentType: c.Response().Header().Get(echo.HeaderContentType),
                    Body:        capture.buf.Bytes(),
                })
                if err == nil {
                    _ = rdb.Set(r.Context(), key, raw, cfg.TTL).Err()
                }
            }
            return nil
        }
    }
}
