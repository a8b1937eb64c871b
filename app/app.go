// Package app wires configuration, storage and the HTTP surface into a
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"krishi/config"
	"krishi/database"
	"krishi/pkg/ai"
	aiCtrlImp "krishi/pkg/ai/controllerImp"
	authCtrlImp "krishi/pkg/auth/controllerImp"
	"krishi/pkg/auth/crypto"
	authSvcImp "krishi/pkg/auth/serviceImp"
	"krishi/pkg/auth/token"
	farmerRepoImp "krishi/pkg/farmer/repositoryImp"
	healthCtrlImp "krishi/pkg/health/controllerImp"
	"krishi/pkg/market"
	marketCtrlImp "krishi/pkg/market/controllerImp"
	"krishi/pkg/metrics"
	"krishi/pkg/middleware"
	profileCtrlImp "krishi/pkg/profile/controllerImp"
	profileSvcImp "krishi/pkg/profile/serviceImp"
	"krishi/pkg/ratelimit"
	"krishi/pkg/recommend"
	"krishi/pkg/soil"
	soilCtrlImp "krishi/pkg/soil/controllerImp"
	"krishi/pkg/weather"
	weatherCtrlImp "krishi/pkg/weather/controllerImp"
	"krishi/router"
)

const (
	shutdownTimeout = 10 * time.Second
	upstreamTimeout = 15 * time.Second
	limiterIdle     = 30 * time.Minute
)

type App struct {
	Echo    *echo.Echo
	DB      *gorm.DB
	Metrics *metrics.Metrics

	cfg     config.AppConfig
	log     *zap.Logger
	redis   *redis.Client
	limiter *middleware.ClientLimiter
}

// New opens storage and builds every service. Call Close when done.
func New(ctx context.Context, cfg config.AppConfig, log *zap.Logger) (*App, error) {
	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		closeDB(db)
		return nil, err
	}

	a := &App{DB: db, Metrics: metrics.New(), cfg: cfg, log: log}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, log, m := a.cfg, a.log, a.Metrics
	hc := &http.Client{Timeout: upstreamTimeout}

	var soilLimiter ratelimit.Limiter = ratelimit.NewFixedWindow(cfg.SoilRateLimit, cfg.SoilRateWindow)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			log.Warn("redis unavailable, soil limiter stays in-process", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = rdb.Close()
		} else {
			a.redis = rdb
			soilLimiter = ratelimit.NewRedisWindow(rdb, "krishi:ratelimit", cfg.SoilRateLimit, cfg.SoilRateWindow)
		}
	}

	tokens := token.New(token.Config{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		Issuer:        cfg.JWTIssuer,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		RememberTTL:   cfg.RememberTTL,
	})
	farmers := farmerRepoImp.New(a.DB)
	authSvc := authSvcImp.NewAuthService(farmers, tokens, crypto.NewHasher(cfg.BcryptCost), log, authSvcImp.WithMetrics(m))
	profileSvc := profileSvcImp.NewProfileService(farmers, log, time.Now)

	weatherSvc := weather.NewService(weather.NewOpenWeather(cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey, hc), log, m, time.Now)

	soilClient := soil.NewClient(soil.Config{
		SoilGridsURL: cfg.SoilGridsBaseURL,
		NominatimURL: cfg.NominatimBaseURL,
		Timeout:      cfg.SoilTimeout,
	}, soilLimiter, hc, log, m)

	providers := []market.Provider{market.NewDataGov(cfg.DataGovBaseURL, cfg.DataGovResource, cfg.DataGovAPIKey, hc)}
	if cfg.MandiBoardURL != "" {
		providers = append(providers, market.NewMandiBoard(cfg.MandiBoardURL, hc))
	}
	marketSvc := market.NewService(providers, log, m, time.Now)

	catalog := recommend.DefaultCatalog()
	if cfg.CropCatalogPath != "" {
		loaded, err := recommend.LoadCatalog(cfg.CropCatalogPath)
		if err != nil {
			return fmt.Errorf("crop catalog: %w", err)
		}
		catalog = loaded
	}

	llm, err := ai.NewClient(ctx, ai.Config{
		Gemini:      ai.GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel},
		LLMEndpoint: cfg.LLMEndpoint,
		LLMAPIKey:   cfg.LLMAPIKey,
		LLMModel:    cfg.LLMModel,
	}, nil)
	if err != nil {
		return err
	}
	log.Info("ai provider selected", zap.String("provider", llm.Name()))

	a.limiter = middleware.NewClientLimiter(cfg.APIRatePerSec, cfg.APIRateBurst, m)

	var rdb redis.UniversalClient
	if a.redis != nil {
		rdb = a.redis
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.Metrics(m))
	e.Use(middleware.RequestLogger(log))

	a.Echo = router.New(e, router.Handlers{
		Auth:    authCtrlImp.NewAuthController(authSvc, cfg.Production()),
		Profile: profileCtrlImp.NewProfileController(profileSvc),
		AI: aiCtrlImp.NewAIController(
			ai.NewExplainer(llm, log, m),
			recommend.NewEngine(catalog),
			ai.NewGenerator(cfg.FastAPIURL, nil),
			log, m,
		),
		Weather:   weatherCtrlImp.NewWeatherCtrl(weatherSvc),
		Soil:      soilCtrlImp.NewSoilCtrl(soilClient, log, m),
		Market:    marketCtrlImp.NewMarketCtrl(marketSvc),
		Health:    healthCtrlImp.NewHealthCtrl(a.DB, rdb),
		Metrics:   m.Handler(),
		Verifier:  tokens,
		Limiter:   a.limiter,
		StaticDir: cfg.StaticDir,
	})
	return nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	addr := ":" + a.cfg.Port
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("listening", zap.String("addr", addr))
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("shutting down")
		return a.Echo.Shutdown(sctx)
	})
	g.Go(func() error {
		t := time.NewTicker(limiterIdle / 2)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n := a.limiter.Prune(limiterIdle); n > 0 {
					a.log.Debug("pruned idle client limiters", zap.Int("count", n))
				}
			}
		}
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	closeDB(a.DB)
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
