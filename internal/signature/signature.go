package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/dwizi/ops-console/internal/consoleerr"
)

const dayMillis = 86_400_000

// Signer derives the day-rotating roster signature from a shared secret.
type Signer struct {
	now func() time.Time
}

func NewSigner(now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{now: now}
}

func (s *Signer) Sign(secret string) (string, error) {
	return SignAt(secret, s.now())
}

// Sign signs with the current wall clock.
func Sign(secret string) (string, error) {
	return SignAt(secret, time.Now())
}

// DaysSinceEpoch is the message the signature is computed over.
func DaysSinceEpoch(at time.Time) int64 {
	millis := at.UnixMilli()
	days := millis / dayMillis
	if millis < 0 && millis%dayMillis != 0 {
		days--
	}
	return days
}

// SignAt returns hex(HMAC-SHA256(secret, decimal(daysSinceEpoch(at)))).
func SignAt(secret string, at time.Time) (string, error) {
	if secret == "" {
		return "", &consoleerr.Failure{Kind: consoleerr.ErrSigning, Message: "secret is required"}
	}
	mac := hmac.New(sha256.New, []byte(secret))
	if _, err := mac.Write([]byte(strconv.FormatInt(DaysSinceEpoch(at), 10))); err != nil {
		return "", &consoleerr.Failure{Kind: consoleerr.ErrSigning, Message: fmt.Sprintf("hmac write: %v", err)}
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}
