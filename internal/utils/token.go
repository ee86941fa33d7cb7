package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// VerificationTokenBytes is the amount of randomness in an email
// verification token; hex encoding doubles it to 64 characters.
const VerificationTokenBytes = 32

// RandomHex returns n bytes of cryptographically secure random data as a
// hex string.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewVerificationToken returns a fresh 64 character verification token.
func NewVerificationToken() (string, error) { return RandomHex(VerificationTokenBytes) }

// IsVerificationToken reports whether s has the shape of a token issued by
// NewVerificationToken.
func IsVerificationToken(s string) bool {
	if len(s) != 2*VerificationTokenBytes {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
