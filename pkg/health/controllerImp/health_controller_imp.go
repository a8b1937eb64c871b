package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const checkTimeout = 800 * time.Millisecond

type HealthCtrl struct {
	db      *gorm.DB
	redis   redis.UniversalClient // optional
	started time.Time
	now     func() time.Time
}

func NewHealthCtrl(db *gorm.DB, rdb redis.UniversalClient) *HealthCtrl {
	return &HealthCtrl{db: db, redis: rdb, started: time.Now(), now: time.Now}
}

// check reports one dependency. Only required checks decide the status.
type check struct {
	OK       bool   `json:"ok"`
	Required bool   `json:"required"`
	Err      string `json:"err,omitempty"`
}

func (h *HealthCtrl) pingDB(ctx context.Context) check {
	if h.db == nil {
		return check{Err: "database not configured"}
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return check{Err: "db handle: " + err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return check{Err: "ping: " + err.Error()}
	}
	return check{OK: true}
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
	defer cancel()

	dbc := h.pingDB(ctx)
	dbc.Required = true
	checks := map[string]check{"database": dbc}
	if h.redis != nil {
		// the soil limiter fails open without Redis
		rc := check{OK: true}
		if err := h.redis.Ping(ctx).Err(); err != nil {
			rc = check{Err: "ping: " + err.Error()}
		}
		checks["redis"] = rc
	}

	ok := true
	for _, ch := range checks {
		if ch.Required {
			ok = ok && ch.OK
		}
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	now := h.now()
	return c.JSON(status, echo.Map{
		"status":     echo.Map{"ok": ok},
		"uptime_sec": int(now.Sub(h.started).Seconds()),
		"checks":     checks,
		"time":       now.UTC().Format(time.RFC3339),
	})
}
