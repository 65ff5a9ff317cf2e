package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidState marks state values that fail verification, whether
// malformed, tampered with, or expired.
var ErrInvalidState = errors.New("invalid state")

// StateSigner produces and verifies HMAC-SHA256 signed state values for the
// provider OAuth connect flow. The state carries the payload and an expiry so
// the callback can bind the response to the initiating user without server
// state.
type StateSigner struct {
	key []byte
}

func NewStateSigner(key string) *StateSigner {
	return &StateSigner{key: []byte(key)}
}

// Sign returns "payload|expiresUnix|signature" with payload and signature
// base64url-encoded.
func (s *StateSigner) Sign(payload string, expiresAt time.Time) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	sig := s.sign(encoded, exp)
	return encoded + "|" + exp + "|" + sig
}

// Verify checks the signature and freshness and returns the payload.
func (s *StateSigner) Verify(state string, now time.Time) (string, error) {
	parts := strings.Split(state, "|")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: malformed value", ErrInvalidState)
	}
	encoded, exp, sig := parts[0], parts[1], parts[2]

	expected := s.sign(encoded, exp)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", fmt.Errorf("%w: signature mismatch", ErrInvalidState)
	}

	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: bad expiry: %v", ErrInvalidState, err)
	}
	if now.After(time.Unix(expUnix, 0)) {
		return "", fmt.Errorf("%w: expired", ErrInvalidState)
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: bad payload encoding: %v", ErrInvalidState, err)
	}
	return string(payload), nil
}

func (s *StateSigner) sign(encoded, exp string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(encoded))
	mac.Write([]byte("|"))
	mac.Write([]byte(exp))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
