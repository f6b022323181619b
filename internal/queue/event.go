// Package queue defines the audit events exchanged over the message
// broker, the best-effort publisher, and the background consumer that
// turns events into the audit log file.
package queue

import "encoding/json"

// auditQueueName is the single durable queue carrying all audit events.
const auditQueueName = "records.audit"

// Event kinds carried in the envelope.
const (
    KindStudentUpdated     = "student.updated"
    KindSubmissionReceived = "submission.received"
)

// Envelope wraps every message on the audit queue so one consumer can
// dispatch on kind without separate queues per event type.
type Envelope struct {
    Kind       string          `json:"kind"`
    OccurredAt string          `json:"occurred_at"`
    Data       json.RawMessage `json:"data"`
}

// StudentUpdatedEvent is published after a versioned update commits.
// It carries enough for downstream consumers to log or alert without
// touching the primary database.  It never carries the edit token.
type StudentUpdatedEvent struct {
    StudentID   string `json:"student_id"`
    PrevVersion uint32 `json:"prev_version"`
    Version     uint32 `json:"version"`
    UpdatedAt   string `json:"updated_at"`
}

// SubmissionReceivedEvent is published after a submission is stored.
// UserSub is empty for anonymous submissions.
type SubmissionReceivedEvent struct {
    SubmissionID string `json:"submission_id"`
    UserSub      string `json:"user_sub,omitempty"`
    ReceivedAt   string `json:"received_at"`
}
