// Package token signs and verifies the access and refresh JWTs.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"krishi/entities"
)

var (
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration // default session
	RememberTTL   time.Duration // "remember me"
}

type Option func(*Service)

// WithClock replaces time.Now for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config, opts ...Option) *Service {
	s := &Service{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTTL }

func (s *Service) RefreshTTL(remember bool) time.Duration {
	if remember {
		return s.cfg.RememberTTL
	}
	return s.cfg.RefreshTTL
}

func (s *Service) IssueAccessToken(f *entities.Farmer) (string, error) {
	claims := AccessClaims{
		UserID:           f.ID,
		Email:            f.Email,
		Name:             f.Name,
		RegisteredClaims: s.registered(f.ID, s.cfg.AccessTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.AccessSecret))
}

func (s *Service) IssueRefreshToken(farmerID string, remember bool) (string, error) {
	claims := RefreshClaims{
		UserID:           farmerID,
		RegisteredClaims: s.registered(farmerID, s.RefreshTTL(remember)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.RefreshSecret))
}

// VerifyAccessToken checks signature and expiry only.
func (s *Service) VerifyAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(raw, s.cfg.AccessSecret, claims); err != nil || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) VerifyRefreshToken(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(raw, s.cfg.RefreshSecret, claims); err != nil || claims.UserID == "" {
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

func (s *Service) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now().UTC()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Service) parse(raw, secret string, claims jwt.Claims) error {
	if raw == "" {
		return ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return err
	}
	if !tok.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}
