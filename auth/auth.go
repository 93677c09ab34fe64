// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CodeAlphabet omits 0/o and 1/l so codes survive being read off a screen.
// Its length (32) divides 256, which keeps byte-mod sampling unbiased.
const CodeAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

var (
	ErrInvalidAdminKey  = errors.New("invalid admin key")
	ErrInvalidSignature = errors.New("invalid request signature")
	ErrBadAlphabet      = errors.New("alphabet must be non-empty and at most 256 characters")
)

// GenerateCode draws length characters uniformly from alphabet
func GenerateCode(alphabet string, length int) (string, error) {
	if len(alphabet) == 0 || len(alphabet) > 256 {
		return "", ErrBadAlphabet
	}

	// Reject bytes above the largest multiple of len(alphabet) to stay unbiased
	limit := 256 - (256 % len(alphabet))
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// ValidateAdminKey compares the presented key with the configured one in constant time
func ValidateAdminKey(presented, configured string) error {
	if configured == "" || !hmac.Equal([]byte(presented), []byte(configured)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// TwilioSignature computes the X-Twilio-Signature for a webhook request:
// base64(HMAC-SHA1(authToken, fullURL + sorted(key+value)...))
func TwilioSignature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	h := hmac.New(sha1.New, []byte(authToken))
	h.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// ValidateTwilioSignature checks a webhook signature header
func ValidateTwilioSignature(authToken, fullURL string, params url.Values, signature string) error {
	expected := TwilioSignature(authToken, fullURL, params)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// Fingerprint creates a one-way hash of a phone number for logging
// Includes salt to prevent rainbow table attacks
func Fingerprint(value, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(value))
	sum := h.Sum(nil)
	// First 16 hex chars (64 bits) are enough to correlate log lines
	return hex.EncodeToString(sum[:8])
}
