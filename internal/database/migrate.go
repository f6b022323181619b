package database

import (
    "context"
    "database/sql"
)

// migrations creates the schema on startup when it does not exist yet.
// Statements are idempotent; ordering matters because of the foreign
// keys (students before student_history, users before submissions).
var migrations = []string{
    `CREATE TABLE IF NOT EXISTS students (
        id              VARCHAR(64)  NOT NULL,
        dob             VARCHAR(8)   NULL,
        phone           VARCHAR(20)  NULL,
        name            VARCHAR(100) NULL,
        edit_token_hash VARCHAR(100) NULL,
        version         INT UNSIGNED NOT NULL DEFAULT 1,
        updated_at      DATETIME     NOT NULL,
        PRIMARY KEY (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS student_history (
        history_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        student_id VARCHAR(64)     NOT NULL,
        version    INT UNSIGNED    NOT NULL,
        snapshot   JSON            NOT NULL,
        changed_at DATETIME        NOT NULL,
        PRIMARY KEY (history_id),
        UNIQUE KEY uq_student_version (student_id, version),
        CONSTRAINT fk_history_student FOREIGN KEY (student_id)
            REFERENCES students (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS users (
        google_sub    VARCHAR(64)  NOT NULL,
        email         VARCHAR(255) NULL,
        name          VARCHAR(200) NULL,
        picture       VARCHAR(500) NULL,
        created_at    DATETIME     NOT NULL,
        last_login_at DATETIME     NOT NULL,
        PRIMARY KEY (google_sub),
        KEY idx_users_email (email)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS submissions (
        id         VARCHAR(64) NOT NULL,
        google_sub VARCHAR(64) NULL,
        payload    JSON        NOT NULL,
        created_at DATETIME    NOT NULL,
        PRIMARY KEY (id),
        KEY idx_submissions_sub (google_sub),
        KEY idx_submissions_created (created_at),
        CONSTRAINT fk_submission_user FOREIGN KEY (google_sub)
            REFERENCES users (google_sub)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, db *sql.DB) error {
    for _, stmt := range migrations {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return err
        }
    }
    return nil
}
