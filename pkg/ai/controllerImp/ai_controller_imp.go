package controllerImp

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"krishi/pkg/ai"
	"krishi/pkg/ai/controller"
	"krishi/pkg/apperr"
	"krishi/pkg/metrics"
	"krishi/pkg/reading"
	"krishi/pkg/recommend"
	"krishi/pkg/soil"
)

const (
	explainFailed  = "Failed to generate explanation. Please try again."
	generateFailed = "Failed to fetch from AI microservice"
	maxProxyBody   = 1 << 20
)

type aiCtrl struct {
	explainer *ai.Explainer
	engine    *recommend.Engine
	generator *ai.Generator
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewAIController(
	explainer *ai.Explainer,
	engine *recommend.Engine,
	generator *ai.Generator,
	log *zap.Logger,
	m *metrics.Metrics,
) controller.AIController {
	return &aiCtrl{explainer: explainer, engine: engine, generator: generator, log: log, metrics: m}
}

func (h *aiCtrl) Explain(c echo.Context) error {
	var req ai.ExplainRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	res := h.explainer.Explain(c.Request().Context(), req)
	if !res.Success {
		return c.JSON(http.StatusOK, echo.Map{
			"success":     false,
			"explanation": res.Text,
			"error":       explainFailed,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "explanation": res.Text})
}

type recommendReq struct {
	Criteria string          `json:"criteria"`
	Soil     *soil.Data      `json:"soil"`
	Weather  json.RawMessage `json:"weather"`
}

func (h *aiCtrl) RecommendCrop(c echo.Context) error {
	var req recommendReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	var cond recommend.Conditions
	if req.Soil != nil {
		cond.PH = req.Soil.PH
		cond.OrganicMatter = req.Soil.OrganicMatter
	}
	cond.Temp = tempFrom(req.Weather)
	return c.JSON(http.StatusOK, h.engine.Recommend(req.Criteria, cond))
}

// tempFrom accepts either a full weather report or its current block.
func tempFrom(raw json.RawMessage) reading.Value {
	for _, path := range []string{"current.temp", "temp"} {
		if v := gjson.GetBytes(raw, path); v.Type == gjson.Number {
			return reading.Of(v.Float())
		}
	}
	return reading.Missing
}

func (h *aiCtrl) Generate(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxProxyBody))
	if err != nil || !gjson.ValidBytes(body) {
		return apperr.Validation("Invalid request body")
	}
	out, err := h.generator.Forward(c.Request().Context(), body)
	if err != nil {
		h.log.Warn("ai generator unavailable", zap.Error(err))
		h.metrics.Fallback("ai-generate")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": generateFailed})
	}
	return c.JSONBlob(http.StatusOK, out)
}
