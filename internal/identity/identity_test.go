package identity

import (
    "encoding/hex"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestDeriveStudentID_Concatenates(t *testing.T) {
    id, err := DeriveStudentID("20010403", "09012345678")
    require.NoError(t, err)
    assert.Equal(t, "2001040309012345678", id)
}

func TestDeriveStudentID_Deterministic(t *testing.T) {
    a, err := DeriveStudentID("19991231", "0123456")
    require.NoError(t, err)
    b, err := DeriveStudentID("19991231", "0123456")
    require.NoError(t, err)
    assert.Equal(t, a, b)
}

func TestDeriveStudentID_RejectsMalformedDob(t *testing.T) {
    for _, dob := range []string{"2001-04-03", "200104", "2001040a", ""} {
        _, err := DeriveStudentID(dob, "09012345678")
        require.Error(t, err, "dob %q", dob)
        var fe *FieldError
        require.ErrorAs(t, err, &fe)
        assert.Equal(t, "dob", fe.Field)
    }
}

func TestDeriveStudentID_RejectsMalformedPhone(t *testing.T) {
    for _, phone := range []string{"12345", "090-1234-5678", "123456789012345678901", ""} {
        _, err := DeriveStudentID("20010403", phone)
        require.Error(t, err, "phone %q", phone)
        var fe *FieldError
        require.ErrorAs(t, err, &fe)
        assert.Equal(t, "phone", fe.Field)
    }
}

func TestParseStrategy(t *testing.T) {
    for _, s := range []string{StrategyDerived, StrategyRandom} {
        got, err := ParseStrategy(s)
        require.NoError(t, err)
        assert.Equal(t, s, got)
    }
    _, err := ParseStrategy("both")
    assert.Error(t, err)
}

func TestNewRandomID_ShapeAndUniqueness(t *testing.T) {
    seen := make(map[string]bool)
    for i := 0; i < 100; i++ {
        id, err := NewRandomID()
        require.NoError(t, err)
        assert.Len(t, id, 32)
        _, err = hex.DecodeString(id)
        assert.NoError(t, err)
        assert.False(t, seen[id], "duplicate id %s", id)
        seen[id] = true
    }
}

func TestNewEditToken_IndependentOfID(t *testing.T) {
    id, err := NewRandomID()
    require.NoError(t, err)
    token, err := NewEditToken()
    require.NoError(t, err)
    assert.NotEqual(t, id, token)
    assert.GreaterOrEqual(t, len(token), 32) // 24 bytes -> 32 base64url chars
    assert.NotContains(t, token, "+")
    assert.NotContains(t, token, "/")
    assert.NotContains(t, token, "=")
}
