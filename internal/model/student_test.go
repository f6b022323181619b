package model

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestSnapshot_ExcludesEditTokenHash(t *testing.T) {
    name := "Alice"
    hash := "$2a$10$abcdefghijklmnopqrstuv"
    s := Student{
        ID:            "abc123",
        Name:          &name,
        EditTokenHash: &hash,
        Version:       3,
        UpdatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
    }

    raw, err := json.Marshal(s.Snapshot())
    require.NoError(t, err)

    var doc map[string]any
    require.NoError(t, json.Unmarshal(raw, &doc))
    assert.Equal(t, "abc123", doc["id"])
    assert.Equal(t, "Alice", doc["name"])
    assert.EqualValues(t, 3, doc["version"])
    assert.Equal(t, "2026-01-02T03:04:05Z", doc["updated_at"])
    assert.NotContains(t, string(raw), hash)
    assert.NotContains(t, doc, "edit_token_hash")
}
