package utils

import "golang.org/x/crypto/bcrypt"

// HashEditToken returns the bcrypt hash of a plain edit token using the
// given cost.  Only the hash is persisted; a leaked students table does
// not let an attacker edit records.
func HashEditToken(plain string, cost int) (string, error) {
    b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// VerifyEditToken safely compares a stored bcrypt hash with a presented
// plain token.
func VerifyEditToken(hash, plain string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
