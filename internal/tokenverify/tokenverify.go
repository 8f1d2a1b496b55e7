package tokenverify

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid_token")
	ErrTokenExpired   = errors.New("token_expired")
	ErrSubjectMissing = errors.New("subject_missing")
)

type Parser interface {
	Parse(token string) (*jwt.Token, jwt.MapClaims, error)
}

type Result struct {
	UserID string
	Email  string
	Role   string
}

// Verify parses and validates a session token, returning the identity it
// asserts. Attacker-supplied garbage yields a typed error, never a panic.
func Verify(parser Parser, token string, nowFn func() time.Time) (*Result, error) {
	if parser == nil {
		return nil, ErrInvalidToken
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	tok, claims, err := parser.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if tok == nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil || nowFn().After(exp.Time) {
		return nil, ErrTokenExpired
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrSubjectMissing
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return &Result{UserID: sub, Email: email, Role: role}, nil
}
