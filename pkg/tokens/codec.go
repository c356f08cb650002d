// Package tokens signs and verifies the HS256 access and refresh tokens.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrMissingSecret    = errors.New("signing secret is empty")
)

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	now           func() time.Time
}

// NewCodec uses accessSecret for both kinds when refreshSecret is empty.
func NewCodec(accessSecret, refreshSecret []byte, issuer string) (*Codec, error) {
	if len(accessSecret) == 0 {
		return nil, ErrMissingSecret
	}
	if len(refreshSecret) == 0 {
		refreshSecret = accessSecret
	}
	return &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		issuer:        issuer,
		now:           time.Now,
	}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) secret(kind Kind) ([]byte, error) {
	switch kind {
	case KindAccess:
		return c.accessSecret, nil
	case KindRefresh:
		return c.refreshSecret, nil
	default:
		return nil, fmt.Errorf("%w: unknown token kind %q", ErrMalformed, kind)
	}
}

// Sign issues a token of the given kind for subject. Refresh tokens never
// carry a role.
func (c *Codec) Sign(kind Kind, subject string, id Identity, ttl time.Duration) (string, time.Time, error) {
	secret, err := c.secret(kind)
	if err != nil {
		return "", time.Time{}, err
	}
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty subject", ErrMalformed)
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("non-positive ttl %s", ttl)
	}

	now := c.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)

	claims := Claims{
		Kind:     kind,
		Username: id.Username,
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	if kind == KindAccess {
		claims.Role = id.Role
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

// Verify checks signature, expiry and shape. The error is always one of
// ErrExpired, ErrSignatureInvalid or ErrMalformed.
func (c *Codec) Verify(kind Kind, tokenStr string) (*Claims, error) {
	secret, err := c.secret(kind)
	if err != nil {
		return nil, err
	}
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		// a foreign alg is malformed, not a bad signature
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected sign method %v", t.Header["alg"])
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !tkn.Valid {
		return nil, ErrMalformed
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrMalformed, kind, claims.Kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	if kind == KindAccess && !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing or unknown role", ErrMalformed)
	}
	return &claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
