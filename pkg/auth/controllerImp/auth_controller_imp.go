package controllerImp

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"krishi/pkg/apperr"
	"krishi/pkg/auth/controller"
	"krishi/pkg/auth/service"
	"krishi/pkg/middleware"
)

const RefreshCookie = "refreshToken"

type authCtrl struct {
	svc    service.AuthService
	secure bool
}

// NewAuthController builds the auth handlers. secure marks the refresh
// cookie Secure and should be set in production.
func NewAuthController(svc service.AuthService, secure bool) controller.AuthController {
	return &authCtrl{svc: svc, secure: secure}
}

func (h *authCtrl) SignUp(c echo.Context) error {
	var in service.SignUpInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("All fields are required")
	}
	sess, err := h.svc.SignUp(c.Request().Context(), in)
	if err != nil {
		return err
	}
	h.setRefreshCookie(c, sess.RefreshToken, sess.RefreshTTL)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Account created successfully",
		"user":    sess.User,
		"token":   sess.AccessToken,
	})
}

func (h *authCtrl) SignIn(c echo.Context) error {
	var in service.SignInInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Email and password are required")
	}
	sess, err := h.svc.SignIn(c.Request().Context(), in)
	if err != nil {
		return err
	}
	h.setRefreshCookie(c, sess.RefreshToken, sess.RefreshTTL)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Sign in successful",
		"user":    sess.User,
		"token":   sess.AccessToken,
	})
}

func (h *authCtrl) SignOut(c echo.Context) error {
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Signed out successfully"})
}

// Verify accepts a bearer access token first and falls back to the refresh
// cookie, minting a new access token from it.
func (h *authCtrl) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); raw != "" {
		u, err := h.svc.VerifyAccess(ctx, raw)
		if err == nil {
			return c.JSON(http.StatusOK, echo.Map{"message": "Token is valid", "user": u})
		}
		if !apperr.Is(err, apperr.KindAuth) {
			return err
		}
	}

	cookie, err := c.Cookie(RefreshCookie)
	if err != nil || cookie.Value == "" {
		return apperr.Auth("Invalid or expired token")
	}
	sess, err := h.svc.Refresh(ctx, cookie.Value)
	if err != nil {
		if apperr.Is(err, apperr.KindAuth) {
			h.clearRefreshCookie(c)
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Token refreshed",
		"user":    sess.User,
		"token":   sess.AccessToken,
	})
}

func (h *authCtrl) setRefreshCookie(c echo.Context, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *authCtrl) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
