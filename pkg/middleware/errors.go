package middleware

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"krishi/pkg/apperr"
)

// ErrorHandler renders every error as {"success":false,"message":...}.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := http.StatusInternalServerError, "Internal server error"
		var he *echo.HTTPError
		var ae *apperr.Error
		switch {
		case errors.As(err, &ae):
			status, msg = ae.Kind.Status(), ae.Message
			if ae.Kind == apperr.KindRateLimited && ae.RetryAfter > 0 {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(ae.RetryAfter.Seconds()))))
			}
			if ae.Kind == apperr.KindInternal || ae.Kind == apperr.KindUpstream {
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
		case errors.As(err, &he):
			status = he.Code
			msg = fmt.Sprint(he.Message)
			if status >= http.StatusInternalServerError {
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
		default:
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, echo.Map{"success": false, "message": msg})
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}
