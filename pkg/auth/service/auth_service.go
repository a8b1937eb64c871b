package service

import (
	"context"
	"time"
)

type SignUpInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type SignInInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the result of a successful authentication. RefreshToken is
// empty when the session was minted from an existing refresh cookie.
type Session struct {
	User         UserSummary
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
}

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*Session, error)
	SignIn(ctx context.Context, in SignInInput) (*Session, error)
	// VerifyAccess checks the bearer token and that its farmer still exists.
	VerifyAccess(ctx context.Context, accessToken string) (*UserSummary, error)
	// Refresh mints a new access token from a refresh token.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}
