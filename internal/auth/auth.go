// Package auth verifies HMAC-signed print requests.
//
// A signature covers exactly the timestamp string concatenated with the
// raw request body, so the verifier must see the body bytes before any
// JSON decoding touches them.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// DefaultWindowSeconds is the maximum accepted clock skew between the
// signed timestamp and the server, in either direction.
const DefaultWindowSeconds = 300

// Result is the tagged outcome of a verification. It is never
// partially valid: either OK is true and Reason is empty, or OK is
// false and Reason says why.
type Result struct {
	OK     bool
	Reason string
}

func failure(reason string) Result {
	return Result{OK: false, Reason: reason}
}

// Verify checks the HMAC-SHA256 signature and freshness of a request.
// Checks run in order and short-circuit on the first failure; no
// failure path panics or returns an error.
//
// The "timestamp too old" reason covers both stale and future-skewed
// timestamps: age is the absolute difference from the current time.
func Verify(body []byte, signatureHex, timestampStr, secret string, windowSeconds int) Result {
	return verifyAt(body, signatureHex, timestampStr, secret, windowSeconds, time.Now())
}

func verifyAt(body []byte, signatureHex, timestampStr, secret string, windowSeconds int, now time.Time) Result {
	if secret == "" {
		return failure("HMAC secret not configured")
	}
	if signatureHex == "" {
		return failure("missing signature")
	}
	if timestampStr == "" {
		return failure("missing timestamp")
	}

	ts, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return failure("invalid timestamp format")
	}

	age := now.Unix() - ts
	if age < 0 {
		age = -age
	}
	if age > int64(windowSeconds) {
		return failure(fmt.Sprintf("timestamp too old: %ds > %ds", age, windowSeconds))
	}

	// The expected MAC covers the literal timestamp header bytes, not a
	// re-encoding of the parsed value, so any parseable timestamp string
	// verifies against the signature the client computed over it.
	expected := sign(body, timestampStr, secret)
	if subtle.ConstantTimeCompare([]byte(signatureHex), []byte(expected)) != 1 {
		return failure("invalid signature")
	}

	return Result{OK: true}
}

// Generate computes the hex HMAC-SHA256 signature for a request body at
// the given Unix timestamp. Legitimate clients call this to sign their
// requests.
func Generate(body []byte, timestamp int64, secret string) string {
	return sign(body, strconv.FormatInt(timestamp, 10), secret)
}

func sign(body []byte, timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
