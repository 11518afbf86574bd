package routing

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const tokenLength = 32

// Token derives the personalized unsubscribe/preferences token for one
// recipient. Pure function of (email, secret); safe to call concurrently.
func Token(email, secret string) string {
	sum := sha256.Sum256([]byte(email + ":" + secret))
	return hex.EncodeToString(sum[:])[:tokenLength]
}

// VerifyToken recomputes the token and compares in constant time.
func VerifyToken(email, secret, token string) bool {
	expected := Token(email, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}
