package model

import (
    "encoding/json"
    "time"
)

// Submission is one row of the append-only `submissions` table.  A
// submission carries an arbitrary JSON payload and may optionally be
// linked to a user identity; anonymous submissions keep GoogleSub nil.
// Submissions are immutable once created – there is no update path and
// no versioning.
//
// Fields:
//  ID        – randomly generated 32-char hex key.
//  GoogleSub – optional reference to users.google_sub (nullable).
//  Payload   – arbitrary JSON document as received.
//  CreatedAt – server-side creation timestamp (UTC).
type Submission struct {
    ID        string          // submissions.id
    GoogleSub *string         // submissions.google_sub (nullable)
    Payload   json.RawMessage // submissions.payload
    CreatedAt time.Time       // submissions.created_at
}
