package security

import (
	"errors"
	"fmt"
	"time"

	"bitwise74/bucket-panel/pkg/permission"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookie    = "auvp_session"
	OnboardingCookie = "auvp_onboarding"
	DefaultTokenTTL  = 8 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// Session is the identity carried by the session cookie
type Session struct {
	ID              string                  `json:"id"`
	Email           string                  `json:"email"`
	Name            string                  `json:"name"`
	Role            permission.Role         `json:"role"`
	Permissions     []permission.Permission `json:"permissions"`
	TermsAcceptedAt *time.Time              `json:"termsAcceptedAt"`
}

type sessionClaims struct {
	Email           string   `json:"email"`
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Permissions     []string `json:"permissions"`
	TermsAcceptedAt *int64   `json:"terms_accepted_at,omitempty"`
	jwt.RegisteredClaims
}

type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionSigner(secret string, ttl time.Duration) *SessionSigner {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &SessionSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *SessionSigner) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for sess. The returned time is the expiry.
func (s *SessionSigner) Issue(sess Session) (string, time.Time, error) {
	if sess.ID == "" {
		return "", time.Time{}, errors.New("session has no subject")
	}

	now := s.now()
	exp := now.Add(s.ttl)

	claims := sessionClaims{
		Email:       sess.Email,
		Name:        sess.Name,
		Role:        string(sess.Role),
		Permissions: permission.Strings(permission.Normalize(permission.Strings(sess.Permissions))),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	if sess.TermsAcceptedAt != nil {
		ts := sess.TermsAcceptedAt.Unix()
		claims.TermsAcceptedAt = &ts
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token, %w", err)
	}

	return token, exp, nil
}

// Verify parses and validates a token. Any failure yields ErrInvalidToken or
// ErrTokenExpired.
func (s *SessionSigner) Verify(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	role := permission.Role(claims.Role)
	if !role.Valid() {
		return nil, ErrInvalidToken
	}

	sess := &Session{
		ID:          claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Role:        role,
		Permissions: permission.Normalize(claims.Permissions),
	}

	if claims.TermsAcceptedAt != nil {
		t := time.Unix(*claims.TermsAcceptedAt, 0).UTC()
		sess.TermsAcceptedAt = &t
	}

	return sess, nil
}
