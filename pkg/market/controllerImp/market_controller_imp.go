package controllerImp

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"krishi/pkg/apperr"
	"krishi/pkg/market"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MarketCtrl struct {
	svc *market.Service
	now func() time.Time
}

func NewMarketCtrl(svc *market.Service) *MarketCtrl {
	return &MarketCtrl{svc: svc, now: time.Now}
}

func queryFrom(c echo.Context) market.Query {
	return market.Query{
		City:  strings.TrimSpace(c.QueryParam("city")),
		State: strings.TrimSpace(c.QueryParam("state")),
		Crops: market.ParseCrops(c.QueryParam("crops")),
	}
}

func (h *MarketCtrl) Get(c echo.Context) error {
	q := queryFrom(c)
	res := h.svc.Prices(c.Request().Context(), q)
	loc := q.Location()
	if loc == "" {
		loc = "Unknown"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"prices":      res.Prices,
			"source":      res.Source,
			"location":    loc,
			"lastUpdated": h.now().UTC().Format(time.RFC3339),
		},
	})
}

func (h *MarketCtrl) History(c echo.Context) error {
	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return apperr.Validation("days must be a positive number")
		}
		days = n
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": h.svc.History(days)})
}

func (h *MarketCtrl) Export(c echo.Context) error {
	res := h.svc.Prices(c.Request().Context(), queryFrom(c))
	var buf bytes.Buffer
	if err := market.WriteXLSX(&buf, res.Prices); err != nil {
		return apperr.Internal(err)
	}
	name := fmt.Sprintf("market-prices-%s.xlsx", h.now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

func (h *MarketCtrl) Nearby(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": market.Nearby(c.QueryParam("state"))})
}
