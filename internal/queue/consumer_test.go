package queue

import (
    "encoding/json"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func mustData(t *testing.T, v any) json.RawMessage {
    t.Helper()
    raw, err := json.Marshal(v)
    require.NoError(t, err)
    return raw
}

func TestFormatLine_StudentUpdated(t *testing.T) {
    env := Envelope{
        Kind:       KindStudentUpdated,
        OccurredAt: "2026-01-02T03:04:05Z",
        Data: mustData(t, StudentUpdatedEvent{
            StudentID:   "abc123",
            PrevVersion: 3,
            Version:     4,
            UpdatedAt:   "2026-01-02T03:04:05Z",
        }),
    }
    line, err := formatLine(env)
    require.NoError(t, err)
    assert.Contains(t, line, "student_id=abc123")
    assert.Contains(t, line, "version=3->4")
}

func TestFormatLine_SubmissionReceivedAnonymous(t *testing.T) {
    env := Envelope{
        Kind:       KindSubmissionReceived,
        OccurredAt: "2026-01-02T03:04:05Z",
        Data: mustData(t, SubmissionReceivedEvent{
            SubmissionID: "sub-1",
            ReceivedAt:   "2026-01-02T03:04:05Z",
        }),
    }
    line, err := formatLine(env)
    require.NoError(t, err)
    assert.Contains(t, line, "submission_id=sub-1")
    assert.Contains(t, line, "user=anonymous")
}

func TestFormatLine_UnknownKind(t *testing.T) {
    _, err := formatLine(Envelope{Kind: "something.else"})
    assert.Error(t, err)
}
