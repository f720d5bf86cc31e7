// Package tokens generates the opaque secrets used by the IndieAuth flows
// (authorization codes, bearer tokens) and implements PKCE S256 checks.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateOpaqueToken generates a random opaque token (base64url, no padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateCode generates a random alphanumeric string of length n.
// Authorization codes are alphanumeric so they survive SanitizeCode intact.
func GenerateCode(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

// SanitizeCode strips every non-alphanumeric character from a submitted
// authorization code before it is used as part of a cache key.
func SanitizeCode(code string) string {
	var sb strings.Builder
	sb.Grow(len(code))
	for i := 0; i < len(code); i++ {
		c := code[i]
		if ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// SHA256Base64URL returns sha256(input) as base64url without padding.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// SHA256Hex returns sha256(input) in hexadecimal.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum)
}

// VerifyS256 reports whether challenge == base64url_no_pad(sha256(verifier)),
// the PKCE S256 check. Comparison is constant-time.
func VerifyS256(verifier, challenge string) bool {
	want := SHA256Base64URL(verifier)
	return subtle.ConstantTimeCompare([]byte(want), []byte(challenge)) == 1
}
