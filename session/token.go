package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expired reports whether the JWT access token carries an exp claim in
// the past. The signature is NOT verified — the server remains the
// authority on token validity; this check only stops the client from
// presenting itself as authenticated with a token the server is certain
// to refuse. Malformed tokens and tokens without an exp claim are
// treated as expired.
func Expired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Before(time.Now())
}
