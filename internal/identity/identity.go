// Package identity computes or generates student record keys.  Two
// strategies exist and a deployment runs exactly one of them: the
// derived strategy builds a deterministic key from the date of birth
// and phone number, while the random strategy hands out unguessable
// ids paired with a separate secret edit token.
package identity

import (
    "crypto/rand"
    "encoding/base64"
    "encoding/hex"
    "fmt"
    "regexp"
)

// Strategy names accepted by STUDENT_ID_STRATEGY.
const (
    StrategyDerived = "derived"
    StrategyRandom  = "random"
)

// ParseStrategy validates a strategy name from configuration.
func ParseStrategy(s string) (string, error) {
    switch s {
    case StrategyDerived, StrategyRandom:
        return s, nil
    }
    return "", fmt.Errorf("unknown id strategy %q (want %q or %q)", s, StrategyDerived, StrategyRandom)
}

var (
    dobPattern   = regexp.MustCompile(`^\d{8}$`)
    phonePattern = regexp.MustCompile(`^\d{7,20}$`)
)

// FieldError reports a malformed identity field.  Field names the
// offending input so callers can surface it to the client.
type FieldError struct {
    Field  string
    Reason string
}

func (e *FieldError) Error() string {
    return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateDob checks the YYYYMMDD digit shape of a date of birth.
func ValidateDob(dob string) error {
    if !dobPattern.MatchString(dob) {
        return &FieldError{Field: "dob", Reason: "expect YYYYMMDD digits"}
    }
    return nil
}

// ValidatePhone checks that a phone number is digits only, 7 to 20 long.
func ValidatePhone(phone string) error {
    if !phonePattern.MatchString(phone) {
        return &FieldError{Field: "phone", Reason: "expect digits only, length 7-20"}
    }
    return nil
}

// DeriveStudentID builds the derived key by concatenating the date of
// birth and phone digits.  The function is deterministic: the same
// inputs always yield the same id, which doubles as a natural dedup
// key for the same person on the same phone.  Inputs are validated
// first and a FieldError names whichever field is malformed.
func DeriveStudentID(dob, phone string) (string, error) {
    if err := ValidateDob(dob); err != nil {
        return "", err
    }
    if err := ValidatePhone(phone); err != nil {
        return "", err
    }
    return dob + phone, nil
}

// NewRandomID returns a 128-bit random key encoded as 32 hex
// characters.  It is used for student ids in the random strategy and
// for submission ids in both strategies.  The id appears in URLs and
// is treated as public-ish; authorization never relies on it alone.
func NewRandomID() (string, error) {
    b := make([]byte, 16)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}

// NewEditToken returns the secret that authorizes updates to a
// randomly keyed record.  192 bits of entropy, URL-safe base64 without
// padding.  Generated independently of the id and returned to the
// caller exactly once, at creation time.
func NewEditToken() (string, error) {
    b := make([]byte, 24)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return base64.RawURLEncoding.EncodeToString(b), nil
}
