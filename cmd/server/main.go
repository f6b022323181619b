package main // Entry point package

import (
    "context"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-records/internal/config"
    "github.com/iliyamo/student-records/internal/database"
    "github.com/iliyamo/student-records/internal/handler"
    "github.com/iliyamo/student-records/internal/middleware"
    "github.com/iliyamo/student-records/internal/queue"
    "github.com/iliyamo/student-records/internal/repository"
    "github.com/iliyamo/student-records/internal/router"
    "github.com/iliyamo/student-records/internal/service"
)

func main() {
    _ = godotenv.Load() // best-effort; real env vars win

    cfg := config.Load()

    db, err := database.Open(cfg)
    if err != nil {
        log.Fatalf("database open failed: %v", err)
    }
    if err := database.Migrate(context.Background(), db); err != nil {
        log.Fatalf("database migrate failed: %v", err)
    }

    // Redis is optional; nil disables caching and rate limiting.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable, cache and rate limiting disabled")
    }
    cacheCfg := config.LoadCacheConfig()
    rlCfg := config.LoadRateLimitConfig()

    studentRepo := repository.NewStudentRepo(db)
    historyRepo := repository.NewHistoryRepo(db)
    userRepo := repository.NewUserRepo(db)
    submissionRepo := repository.NewSubmissionRepo(db)

    studentSvc := service.NewStudentService(studentRepo, historyRepo, cfg.IDStrategy, cfg.BcryptCost)
    submissionSvc := service.NewSubmissionService(submissionRepo)

    studentHandler := handler.NewStudentHandler(studentSvc, rdb, cacheCfg)
    submissionHandler := handler.NewSubmissionHandler(submissionSvc)
    adminHandler := handler.NewAdminHandler(submissionSvc)
    identityHandler := handler.NewIdentityHandler(userRepo)

    cacheMW := middleware.ResponseCache(cacheCfg, rdb)
    limiterMW := middleware.NewTokenBucket(rlCfg, rdb)
    optJWT := middleware.OptionalJWT(cfg.JWTSecret)

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterStudents(e, studentHandler, cacheMW)
    router.RegisterSubmissions(e, submissionHandler, optJWT, limiterMW, cacheMW)
    router.RegisterIdentity(e, identityHandler, cfg.JWTSecret)
    router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

    // The audit consumer keeps its own reconnect loop; it never
    // returns and never takes the API down.
    go queue.StartAuditConsumer()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s, id_strategy=%s)", addr, cfg.Env, cfg.IDStrategy)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
