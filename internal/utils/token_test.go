package utils

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestHashEditToken_VerifyRoundTrip(t *testing.T) {
    hash, err := HashEditToken("sekrit-token", bcrypt.MinCost)
    require.NoError(t, err)
    assert.NotEqual(t, "sekrit-token", hash)
    assert.True(t, VerifyEditToken(hash, "sekrit-token"))
}

func TestVerifyEditToken_WrongToken(t *testing.T) {
    hash, err := HashEditToken("sekrit-token", bcrypt.MinCost)
    require.NoError(t, err)
    assert.False(t, VerifyEditToken(hash, "other-token"))
    assert.False(t, VerifyEditToken(hash, ""))
}
