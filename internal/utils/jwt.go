package utils // package utils provides helpers for tokens, codes and validation

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthToken is a signed bearer token together with its expiry.  The
// token is the only session state: nothing about it is stored
// server-side, so verification is signature + expiry alone.
type AuthToken struct {
	Token string
	Exp   time.Time
}

// ErrInvalidToken is returned for any token defect.  Callers must not
// distinguish between missing, malformed, expired and revoked tokens
// in responses.
var ErrInvalidToken = errors.New("invalid token")

// NewAuthToken builds and signs an HS256 JWT bound to a single user ID.
// Claims are the subject (sub), role, expiration (exp) and issued-at
// (iat).  ttlDays defaults to 7 via config.
func NewAuthToken(secret string, userID uint64, role string, ttlDays int) (AuthToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AuthToken{}, err
	}
	return AuthToken{Token: signed, Exp: exp}, nil
}

// ParseAuthToken verifies signature and expiry and returns the user ID
// from the subject claim.  Every failure mode collapses into
// ErrInvalidToken.
func ParseAuthToken(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	// Numeric claims decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, ErrInvalidToken
	}
	return uint64(sub), nil
}
