package transport

import (
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

var censoredFields = []string{"password", "current_password", "new_password"}

// RequestLogger logs one line per request and, at debug level, the request body
// with credentials censored.
func RequestLogger(logger *zap.SugaredLogger) echo.MiddlewareFunc {
	dump := middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: func(c echo.Context) bool {
			return !logger.Desugar().Core().Enabled(zap.DebugLevel)
		},
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			if len(reqBody) == 0 {
				return
			}
			logger.Debugw("request body", "path", c.Path(), "body", string(censorBody(reqBody)))
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := dump(next)
		return func(c echo.Context) error {
			start := time.Now()
			err := h(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			logger.Infow("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"latency", time.Since(start),
				"remote_ip", c.RealIP(),
			)
			return nil
		}
	}
}

func censorBody(body []byte) []byte {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}
	changed := false
	for _, field := range censoredFields {
		if _, ok := payload[field]; ok {
			payload[field] = "$censored"
			changed = true
		}
	}
	if !changed {
		return body
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return out
}
