package controllerImp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"krishi/pkg/weather"
)

func TestGetReturnsEnvelopeOnUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	svc := weather.NewService(weather.NewOpenWeather(upstream.URL, "k", nil), zap.NewNop(), nil, nil)
	h := NewWeatherCtrl(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/weather?lat=18.5&lon=73.8", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Get(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool           `json:"success"`
		Error   string         `json:"error"`
		Data    weather.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Failed to fetch weather data", body.Error)
	assert.Len(t, body.Data.WeeklyForecast, 5)
	assert.False(t, body.Data.Current.Temp.Valid())
}

func TestGetWithoutLocation(t *testing.T) {
	svc := weather.NewService(weather.NewOpenWeather("http://unused", "k", nil), zap.NewNop(), nil, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/weather", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, NewWeatherCtrl(svc).Get(e.NewContext(req, rec)))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "error")
}
