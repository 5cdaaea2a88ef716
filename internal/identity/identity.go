package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is display-only information read from a federated ID token. The token is
// NOT verified here; the backend verifies it on every dispatch.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	Issuer    string
	ExpiresAt time.Time
}

// LooksLikeToken reports whether value has the three-segment shape of a JWT.
func LooksLikeToken(value string) bool {
	value = strings.TrimSpace(value)
	return strings.Count(value, ".") == 2 && !strings.ContainsAny(value, " \t\n")
}

// Peek reads the claims of a JWT without verifying its signature.
func Peek(token string) (Claims, bool) {
	if !LooksLikeToken(token) {
		return Claims{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return Claims{}, false
	}
	out := Claims{}
	out.Subject, _ = claims.GetSubject()
	out.Issuer, _ = claims.GetIssuer()
	out.Email, _ = claims["email"].(string)
	out.Name, _ = claims["name"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time.UTC()
	}
	return out, true
}

// Label is the operator identity shown in the header.
func (c Claims) Label() string {
	for _, candidate := range []string{c.Email, c.Name, c.Subject} {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimSpace(candidate)
		}
	}
	return "operator"
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
