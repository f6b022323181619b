package database

import (
    "context"
    "database/sql"
    "net"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/student-records/internal/config"
)

// Open connects to MySQL with the pool tuned from configuration and
// verifies the connection before handing it to the repositories.
func Open(cfg config.Config) (*sql.DB, error) {
    db, err := sql.Open("mysql", dsn(cfg))
    if err != nil {
        return nil, err
    }

    db.SetMaxOpenConns(cfg.DBMaxOpen)
    db.SetMaxIdleConns(cfg.DBMaxIdle)
    db.SetConnMaxLifetime(cfg.DBConnLife)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    return db, nil
}

// dsn builds the connection string through the driver's own config
// type.  ParseTime makes DATETIME columns scan into time.Time and the
// UTC location keeps them aligned with how the repositories write
// timestamps.
func dsn(cfg config.Config) string {
    mc := mysql.NewConfig()
    mc.User = cfg.DBUser
    mc.Passwd = cfg.DBPass
    mc.Net = "tcp"
    mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
    mc.DBName = cfg.DBName
    mc.ParseTime = true
    mc.Loc = time.UTC
    mc.Params = map[string]string{"charset": "utf8mb4"}
    return mc.FormatDSN()
}
