package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"krishi/pkg/geo"
	"krishi/pkg/weather"
)

type WeatherCtrl struct{ svc *weather.Service }

func NewWeatherCtrl(svc *weather.Service) *WeatherCtrl { return &WeatherCtrl{svc: svc} }

// Get always answers 200; Success false marks placeholder data.
func (h *WeatherCtrl) Get(c echo.Context) error {
	loc := geo.Parse(
		c.QueryParam("lat"), c.QueryParam("lon"),
		c.QueryParam("city"), c.QueryParam("state"), c.QueryParam("country"),
	)
	res := h.svc.Lookup(c.Request().Context(), loc)
	body := echo.Map{"success": res.Success, "data": res.Report}
	if !res.Success {
		body["error"] = "Failed to fetch weather data"
	}
	return c.JSON(http.StatusOK, body)
}
