package model

import (
    "encoding/json"
    "time"
)

// Student represents a tracked record in the `students` table.  The
// primary key is either derived from the date of birth and phone number
// (derived strategy) or randomly generated (random strategy).  In the
// random strategy the record carries a bcrypt hash of the edit token
// that authorizes updates; the plain token is never stored.
//
// Fields:
//  ID            – primary key; derived key or 32-char hex token.
//  Dob           – date of birth as YYYYMMDD digits (nullable).
//  Phone         – phone number digits (nullable).
//  Name          – optional display name, at most 100 characters.
//  EditTokenHash – bcrypt hash of the edit token (nullable; random strategy only).
//  Version       – starts at 1, incremented by exactly 1 on every update.
//  UpdatedAt     – timestamp of the last successful write (UTC).
type Student struct {
    ID            string    // students.id
    Dob           *string   // students.dob (nullable)
    Phone         *string   // students.phone (nullable)
    Name          *string   // students.name (nullable)
    EditTokenHash *string   // students.edit_token_hash (nullable)
    Version       uint32    // students.version
    UpdatedAt     time.Time // students.updated_at
}

// StudentSnapshot is the structural copy of a student written into the
// history log before every update.  It deliberately excludes the edit
// token hash: history rows are readable and must never leak the secret.
type StudentSnapshot struct {
    ID        string  `json:"id"`
    Dob       *string `json:"dob"`
    Phone     *string `json:"phone"`
    Name      *string `json:"name"`
    Version   uint32  `json:"version"`
    UpdatedAt string  `json:"updated_at"`
}

// Snapshot builds the point-in-time copy of the student for the history
// log.  UpdatedAt is rendered as RFC3339 in UTC so snapshots stay
// readable without knowing the DB column format.
func (s *Student) Snapshot() StudentSnapshot {
    return StudentSnapshot{
        ID:        s.ID,
        Dob:       s.Dob,
        Phone:     s.Phone,
        Name:      s.Name,
        Version:   s.Version,
        UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
    }
}

// StudentHistory is one immutable row of the `student_history` table.
// Rows for a given student form a contiguous version sequence
// 1..(current version - 1); the (student_id, version) pair is unique.
//
// Fields:
//  HistoryID – auto-increment primary key.
//  StudentID – owning student; cascade-deleted with the student.
//  Version   – version the student held before the update that wrote this row.
//  Snapshot  – JSON copy of the student at that version.
//  ChangedAt – when the snapshot was taken (UTC).
type StudentHistory struct {
    HistoryID uint64          // student_history.history_id
    StudentID string          // student_history.student_id
    Version   uint32          // student_history.version
    Snapshot  json.RawMessage // student_history.snapshot
    ChangedAt time.Time       // student_history.changed_at
}
