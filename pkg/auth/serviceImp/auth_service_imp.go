package serviceImp

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"krishi/entities"
	"krishi/pkg/apperr"
	"krishi/pkg/auth/crypto"
	"krishi/pkg/auth/service"
	"krishi/pkg/auth/token"
	"krishi/pkg/farmer/repository"
	"krishi/pkg/metrics"
)

const (
	minPasswordLen     = 8
	invalidCredentials = "Invalid credentials"
	invalidToken       = "Invalid or expired token"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authSvc struct {
	farmers repository.FarmerRepository
	tokens  *token.Service
	hasher  *crypto.Hasher
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	refreshes singleflight.Group
}

type Option func(*authSvc)

func WithClock(now func() time.Time) Option { return func(s *authSvc) { s.now = now } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *authSvc) { s.metrics = m } }

func NewAuthService(
	farmers repository.FarmerRepository,
	tokens *token.Service,
	hasher *crypto.Hasher,
	log *zap.Logger,
	opts ...Option,
) service.AuthService {
	s := &authSvc{farmers: farmers, tokens: tokens, hasher: hasher, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *authSvc) SignUp(ctx context.Context, in service.SignUpInput) (*service.Session, error) {
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if first == "" || last == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation("All fields are required")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return nil, apperr.Validation("Password must be at least 8 characters long")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperr.Validation("Please provide a valid email address")
	}

	if _, err := s.farmers.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	f := &entities.Farmer{
		Email:    email,
		Password: hash,
		Name:     first + " " + last,
		LastSync: s.now(),
	}
	if err := s.farmers.Create(ctx, f); err != nil {
		// lost a race with a concurrent sign-up for the same email
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict("User with this email already exists")
		}
		return nil, apperr.Internal(err)
	}
	s.log.Info("farmer signed up", zap.String("farmer_id", f.ID))
	return s.session(f, false)
}

func (s *authSvc) SignIn(ctx context.Context, in service.SignInInput) (*service.Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	f, err := s.farmers.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Auth(invalidCredentials)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !s.hasher.Compare(f.Password, in.Password) {
		return nil, apperr.Auth(invalidCredentials)
	}

	f.LastSync = s.now()
	if err := s.farmers.TouchLastSync(ctx, f.ID, f.LastSync); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.session(f, in.RememberMe)
}

func (s *authSvc) VerifyAccess(ctx context.Context, accessToken string) (*service.UserSummary, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, apperr.Auth(invalidToken)
	}
	f, err := s.farmers.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Auth(invalidToken)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := summary(f)
	return &u, nil
}

// Refresh is serialized per farmer: concurrent tabs refreshing at once share
// a single lookup and a single issued token.
func (s *authSvc) Refresh(ctx context.Context, refreshToken string) (*service.Session, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Auth(invalidToken)
	}

	v, err, shared := s.refreshes.Do(claims.UserID, func() (any, error) {
		// shared by every waiting caller; outlives the first one hanging up
		ctx := context.WithoutCancel(ctx)
		f, err := s.farmers.FindByID(ctx, claims.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Auth(invalidToken)
		}
		if err != nil {
			return nil, apperr.Internal(err)
		}
		f.LastSync = s.now()
		if err := s.farmers.TouchLastSync(ctx, f.ID, f.LastSync); err != nil {
			return nil, apperr.Internal(err)
		}
		access, err := s.tokens.IssueAccessToken(f)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		s.metrics.TokenIssued("access")
		return &service.Session{User: summary(f), AccessToken: access}, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("refresh shared with concurrent request", zap.String("farmer_id", claims.UserID))
	}
	sess := *v.(*service.Session)
	return &sess, nil
}

func (s *authSvc) session(f *entities.Farmer, remember bool) (*service.Session, error) {
	access, err := s.tokens.IssueAccessToken(f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, err := s.tokens.IssueRefreshToken(f.ID, remember)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.metrics.TokenIssued("access")
	s.metrics.TokenIssued("refresh")
	return &service.Session{
		User:         summary(f),
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshTTL:   s.tokens.RefreshTTL(remember),
	}, nil
}

func summary(f *entities.Farmer) service.UserSummary {
	return service.UserSummary{ID: f.ID, Email: f.Email, Name: f.Name}
}
