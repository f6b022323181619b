package database

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/student-records/internal/config"
)

func testDBConfig() config.Config {
    return config.Config{
        DBUser:     "records",
        DBPass:     "s3cret",
        DBHost:     "db.internal",
        DBPort:     "3306",
        DBName:     "studentrecords",
        DBMaxOpen:  25,
        DBMaxIdle:  25,
        DBConnLife: 30 * time.Minute,
    }
}

func TestDSN_CarriesPoolIndependentOptions(t *testing.T) {
    got := dsn(testDBConfig())
    assert.Contains(t, got, "records:s3cret@tcp(db.internal:3306)/studentrecords")
    assert.Contains(t, got, "parseTime=true")
    assert.Contains(t, got, "charset=utf8mb4")
}

func TestDSN_EmptyPassword(t *testing.T) {
    cfg := testDBConfig()
    cfg.DBPass = ""
    got := dsn(cfg)
    assert.Contains(t, got, "records@tcp(db.internal:3306)/studentrecords")
}
