package router

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	aiCtrl "krishi/pkg/ai/controller"
	authCtrl "krishi/pkg/auth/controller"
	"krishi/pkg/middleware"
	profileCtrl "krishi/pkg/profile/controller"
)

// Handlers is everything the route table needs.
type Handlers struct {
	Auth    authCtrl.AuthController
	Profile profileCtrl.ProfileController
	AI      aiCtrl.AIController
	Weather interface{ Get(echo.Context) error }
	Soil    interface{ Get(echo.Context) error }
	Market  interface {
		Get(echo.Context) error
		History(echo.Context) error
		Export(echo.Context) error
		Nearby(echo.Context) error
	}
	Health  interface{ Health(echo.Context) error }
	Metrics http.Handler

	Verifier  middleware.AccessVerifier
	Limiter   *middleware.ClientLimiter
	StaticDir string
}

func New(e *echo.Echo, h Handlers) *echo.Echo {
	e.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}
	e.GET("/sw.js", func(c echo.Context) error {
		c.Response().Header().Set("Service-Worker-Allowed", "/")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		return c.File(filepath.Join(h.StaticDir, "sw.js"))
	})

	api := e.Group("/api/v1")
	api.Use(echoMiddleware.BodyLimit("1M"))

	auth := api.Group("/auth", h.Limiter.Middleware("auth"))
	auth.POST("/signup", h.Auth.SignUp)
	auth.POST("/signin", h.Auth.SignIn)
	auth.POST("/signout", h.Auth.SignOut)
	auth.GET("/verify", h.Auth.Verify)

	aiPublic := api.Group("/ai", h.Limiter.Middleware("ai"))
	aiPublic.POST("/explain", h.AI.Explain)
	aiPublic.POST("/generate", h.AI.Generate)

	p := api.Group("/protected", middleware.RequireAuth(h.Verifier))
	p.GET("/profile", h.Profile.Get)
	p.PUT("/profile", h.Profile.Update)
	p.GET("/weather", h.Weather.Get)
	p.GET("/soil", h.Soil.Get)
	p.GET("/market-prices", h.Market.Get)
	p.GET("/market-prices/history", h.Market.History)
	p.GET("/market-prices/export", h.Market.Export)
	p.GET("/market-prices/nearby", h.Market.Nearby)
	p.POST("/ai/recommend-crop", h.AI.RecommendCrop, h.Limiter.Middleware("ai"))

	return e
}
