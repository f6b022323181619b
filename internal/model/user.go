package model

import "time"

// User mirrors the `users` table.  Users are keyed by the identity
// provider's subject claim; email, name and picture are mutable mirrors
// of the provider's latest claims and are refreshed on every session
// upsert.  The OAuth exchange itself happens outside this service – we
// only ever see verified claims.
//
// Fields:
//  GoogleSub   – identity provider subject (primary key).
//  Email       – last known email (nullable).
//  Name        – last known display name (nullable).
//  Picture     – last known avatar URL (nullable).
//  CreatedAt   – first time this subject was seen.
//  LastLoginAt – last session upsert.
type User struct {
    GoogleSub   string    // users.google_sub
    Email       *string   // users.email (nullable)
    Name        *string   // users.name (nullable)
    Picture     *string   // users.picture (nullable)
    CreatedAt   time.Time // users.created_at
    LastLoginAt time.Time // users.last_login_at
}
