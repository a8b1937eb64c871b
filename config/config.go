package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string `env:"PORT,default=8080"`
	Env      string `env:"APP_ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
	DBPath   string `env:"DB_PATH,default=krishi.db"`

	JWTSecret        string        `env:"JWT_SECRET,default=your-jwt-secret-key"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET,default=your-refresh-secret-key"`
	JWTIssuer        string        `env:"JWT_ISSUER,default=krishi-ai"`
	AccessTTL        time.Duration `env:"ACCESS_TOKEN_TTL,default=15m"`
	RefreshTTL       time.Duration `env:"REFRESH_TOKEN_TTL,default=24h"`
	RememberTTL      time.Duration `env:"REFRESH_TOKEN_REMEMBER_TTL,default=168h"`
	BcryptCost       int           `env:"BCRYPT_COST,default=12"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL,default=gemini-2.0-flash"`
	LLMEndpoint  string `env:"LLM_ENDPOINT"`
	LLMAPIKey    string `env:"LLM_API_KEY"`
	LLMModel     string `env:"LLM_MODEL,default=gpt-4o-mini"`
	FastAPIURL   string `env:"FASTAPI_URL,default=http://localhost:8000"`

	OpenWeatherAPIKey  string `env:"OPENWEATHER_API_KEY"`
	OpenWeatherBaseURL string `env:"OPENWEATHER_BASE_URL,default=https://api.openweathermap.org"`

	SoilGridsBaseURL string        `env:"SOILGRIDS_BASE_URL,default=https://rest.isric.org/soilgrids/v2.0"`
	NominatimBaseURL string        `env:"NOMINATIM_BASE_URL,default=https://nominatim.openstreetmap.org"`
	SoilTimeout      time.Duration `env:"SOIL_TIMEOUT,default=2000ms"`
	SoilRateLimit    int           `env:"SOIL_RATE_LIMIT,default=5"`
	SoilRateWindow   time.Duration `env:"SOIL_RATE_WINDOW,default=60s"`

	DataGovAPIKey   string `env:"DATA_GOV_IN_API_KEY"`
	DataGovBaseURL  string `env:"DATA_GOV_IN_BASE_URL,default=https://api.data.gov.in/resource"`
	DataGovResource string `env:"DATA_GOV_IN_RESOURCE,default=9ef84268-d588-465a-a308-a864a43d0070"`
	MandiBoardURL   string `env:"MANDI_BOARD_URL"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	APIRatePerSec float64 `env:"API_RATE_PER_SEC,default=5"`
	APIRateBurst  int     `env:"API_RATE_BURST,default=10"`

	CropCatalogPath string `env:"CROP_CATALOG_PATH"`
	StaticDir       string `env:"STATIC_DIR,default=static"`
}

func (c AppConfig) Production() bool { return c.Env == "production" }

// Load reads .env when present, then the process environment.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (AppConfig, error) {
	var cfg AppConfig
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return AppConfig{}, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) Validate() error {
	switch {
	case c.JWTSecret == "" || c.JWTRefreshSecret == "":
		return errors.New("config: JWT_SECRET and JWT_REFRESH_SECRET must be set")
	case c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.RememberTTL <= 0:
		return errors.New("config: token TTLs must be positive")
	case c.BcryptCost < 4 || c.BcryptCost > 31:
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	case c.SoilRateLimit <= 0 || c.SoilRateWindow <= 0:
		return errors.New("config: soil rate limit and window must be positive")
	case c.Production() && c.JWTSecret == c.JWTRefreshSecret:
		return errors.New("config: JWT_SECRET and JWT_REFRESH_SECRET must differ in production")
	}
	return nil
}
