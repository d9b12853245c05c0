package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens signs bearer tokens carrying the same snapshot a session holds.
type Tokens struct {
	secret []byte
	ttl    time.Duration

	Now func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, Now: time.Now}
}

type principalClaims struct {
	Principal
	jwt.RegisteredClaims
}

// Issue signs p with HS256.
func (t *Tokens) Issue(p Principal) (string, error) {
	now := t.Now()
	claims := principalClaims{
		Principal: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates a token and returns its principal.
func (t *Tokens) Parse(raw string) (*Principal, error) {
	var claims principalClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &Error{Kind: KindUnauthenticated, Message: "token expired", Err: err}
		}
		return nil, &Error{Kind: KindUnauthenticated, Message: "invalid token", Err: err}
	}
	if claims.Principal.ID == "" || claims.Principal.Kind == "" {
		return nil, fail(KindUnauthenticated, "invalid token")
	}
	p := claims.Principal
	return &p, nil
}
