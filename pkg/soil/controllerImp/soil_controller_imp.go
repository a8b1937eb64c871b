package controllerImp

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"krishi/pkg/apperr"
	"krishi/pkg/geo"
	"krishi/pkg/metrics"
	"krishi/pkg/soil"
)

type SoilCtrl struct {
	client  *soil.Client
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewSoilCtrl(client *soil.Client, log *zap.Logger, m *metrics.Metrics) *SoilCtrl {
	return &SoilCtrl{client: client, log: log, metrics: m}
}

// Get answers 429 when the quota is spent; other upstream failures return
// placeholder values with success false.
func (h *SoilCtrl) Get(c echo.Context) error {
	loc := geo.Parse(
		c.QueryParam("lat"), c.QueryParam("lon"),
		c.QueryParam("city"), c.QueryParam("state"), c.QueryParam("country"),
	)
	if !loc.HasCoords() && !loc.HasPlace() {
		return apperr.Validation("Latitude and longitude, or city and state, are required")
	}

	data, err := h.client.FromLocation(c.Request().Context(), loc)
	if err == nil {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
	}

	var rl *soil.RateLimitError
	if errors.As(err, &rl) {
		return apperr.RateLimited(rl.Error(), rl.Decision.RetryAfter)
	}

	msg := "Failed to fetch soil data"
	var le *soil.LocationError
	switch {
	case errors.Is(err, soil.ErrTimeout):
		msg = soil.ErrTimeout.Error()
	case errors.As(err, &le):
		msg = le.Error()
	}
	h.log.Warn("soil lookup failed, using placeholders", zap.Error(err))
	h.metrics.Fallback("soil")
	return c.JSON(http.StatusOK, echo.Map{"success": false, "data": soil.Placeholder(), "error": msg})
}
