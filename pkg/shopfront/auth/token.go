// Package auth signs and verifies the HS256 tokens shopfront issues to its users.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// MinSecretLength is the shortest secret New accepts.
	MinSecretLength = 10
	DefaultExpiry   = time.Hour
)

var (
	ErrWeakSecret   = errors.New("jwt secret is too short")
	ErrInvalidToken = errors.New("invalid token")
	errMissingUser  = errors.New("token has no user id")
)

// Claims is the payload of a shopfront token.
type Claims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*Tokens)

// WithExpiry sets the lifetime Sign gives tokens. Non-positive values keep DefaultExpiry.
func WithExpiry(d time.Duration) Option {
	return func(t *Tokens) {
		if d > 0 {
			t.expiry = d
		}
	}
}

// WithIssuer sets iss on signed tokens and makes Verify require it.
func WithIssuer(issuer string) Option {
	return func(t *Tokens) {
		t.issuer = issuer
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tokens) {
		t.now = now
	}
}

func New(secret string, opts ...Option) (*Tokens, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrWeakSecret, MinSecretLength)
	}

	t := &Tokens{
		secret: []byte(secret),
		expiry: DefaultExpiry,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Sign returns a token for claims that expires after the configured expiry, unless claims already carry one.
func (t *Tokens) Sign(claims Claims) (string, error) {
	if claims.ExpiresAt == nil {
		return t.SignWithExpiry(claims, t.expiry)
	}

	return t.sign(claims)
}

// SignWithExpiry returns a token for claims that expires d from now.
func (t *Tokens) SignWithExpiry(claims Claims, d time.Duration) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(t.now().Add(d))

	return t.sign(claims)
}

func (t *Tokens) sign(claims Claims) (string, error) {
	if claims.UserID == "" {
		return "", errMissingUser
	}

	now := jwt.NewNumericDate(t.now())

	if claims.IssuedAt == nil {
		claims.IssuedAt = now
	}

	if claims.NotBefore == nil {
		claims.NotBefore = now
	}

	if claims.Issuer == "" {
		claims.Issuer = t.issuer
	}

	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(t.secret)
}

// Verify parses token and returns its claims only when the signature, algorithm, lifetime and issuer all check
// out. Every failure wraps ErrInvalidToken.
func (t *Tokens) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}

	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, errMissingUser)
	}

	return claims, nil
}
