package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/logger"
)

// ErrorHandler renders the last error attached to the Gin context as
// {"error":{"code","message"}}. Errors that are not AppErrors are logged in
// full and reported as INTERNAL_ERROR. Nothing is written when the handler
// already sent a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := toAppError(c, c.Errors.Last().Err)
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}

func toAppError(c *gin.Context, err error) *apperrors.AppError {
	log := logger.Named("http").With(
		"request_id", RequestID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Errorw("unexpected error", "error", err.Error())
		return apperrors.ErrInternalServer
	}
	if appErr.Internal != nil {
		log.Errorw("app error", "code", appErr.Code, "message", appErr.Message, "internal", appErr.Internal.Error())
	}
	return appErr
}
