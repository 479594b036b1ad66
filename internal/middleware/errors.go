package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gmendes/carteira/internal/domain/dto"
	"github.com/gmendes/carteira/internal/logger"
)

// ErrorHandler is a Gin middleware that converts errors collected via
// c.Error into a standardized JSON response.
//
// Behavior:
//   - Runs the handler chain first.
//   - If any handler attached errors and no response was written yet,
//     responds 500 with the last error wrapped in dto.ErrorResponse.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.ErrorHandler)
var ErrorHandler gin.HandlerFunc = func(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	last := c.Errors.Last().Err
	logger.L().Error().Err(last).Str("path", c.Request.URL.Path).Msg("unhandled request error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", last))
}

// AbortWithError attaches the error to the context, logs it, and aborts
// the request with a JSON dto.ErrorResponse using the given status.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	logger.L().Warn().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg(message)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
