package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const DefaultTokenLifetime = 30 * time.Minute

type Tokens struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
	now      func() time.Time
}

func NewTokens(secret string, method jwt.SigningMethod, lifetime time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("only HMAC signing methods are supported")
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &Tokens{secret: []byte(secret), method: method, lifetime: lifetime, now: time.Now}, nil
}

func (t *Tokens) Lifetime() time.Duration {
	return t.lifetime
}

// Issue signs a token for subject that expires after ttl, or after the configured lifetime when ttl is zero.
func (t *Tokens) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = t.lifetime
	}
	now := t.now()
	claims := jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
}

// Validate verifies the token and returns its subject. Every failure is reported as ErrInvalidCredentials.
func (t *Tokens) Validate(token string) (string, error) {
	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tk *jwt.Token) (interface{}, error) {
		if tk.Method.Alg() != t.method.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidCredentials
	}
	if claims.Subject == "" || claims.ExpiresAt == 0 || t.now().Unix() >= claims.ExpiresAt {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}
