package controller

import "github.com/labstack/echo/v4"

type AIController interface {
	Explain(c echo.Context) error
	RecommendCrop(c echo.Context) error
	Generate(c echo.Context) error
}
