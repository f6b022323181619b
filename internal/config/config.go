package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"

    "github.com/iliyamo/student-records/internal/identity"
)

// Config holds all runtime configuration values.  Each field maps to
// an environment variable.  Strings for identifiers and secrets, ints
// for costs.
type Config struct {
    Env        string        // application environment (e.g. "dev", "prod")
    Port       string        // HTTP port to listen on
    DBUser     string        // database username
    DBPass     string        // database password (optional)
    DBHost     string        // database host address
    DBPort     string        // database port number
    DBName     string        // database name
    DBMaxOpen  int           // max open database connections
    DBMaxIdle  int           // max idle database connections
    DBConnLife time.Duration // connection max lifetime
    JWTSecret  string        // secret used to verify externally issued identity tokens
    BcryptCost int           // bcrypt cost for edit-token hashing
    IDStrategy string        // student id strategy: "random" or "derived"
}

// Load reads configuration from the environment.  Required variables
// are enforced by must(); missing values exit with a fatal log
// message.  STUDENT_ID_STRATEGY defaults to "random", matching the
// anonymous-id deployment, and is validated so a typo cannot silently
// flip authorization semantics.
func Load() Config {
    strategy, err := identity.ParseStrategy(getenv("STUDENT_ID_STRATEGY", identity.StrategyRandom))
    if err != nil {
        log.Fatalf("STUDENT_ID_STRATEGY: %v", err)
    }
    return Config{
        Env:        must("APP_ENV"),
        Port:       must("APP_PORT"),
        DBUser:     must("DB_USER"),
        DBPass:     os.Getenv("DB_PASS"), // empty allowed
        DBHost:     must("DB_HOST"),
        DBPort:     must("DB_PORT"),
        DBName:     must("DB_NAME"),
        DBMaxOpen:  envInt("DB_MAX_OPEN_CONNS", 25),
        DBMaxIdle:  envInt("DB_MAX_IDLE_CONNS", 25),
        DBConnLife: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
        JWTSecret:  must("JWT_SECRET"),
        BcryptCost: mustInt("BCRYPT_COST"),
        IDStrategy: strategy,
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
