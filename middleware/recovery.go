package middleware

import (
	"errors"
	"fmt"

	"hippocampus/apperror"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
)

// abortWithError records err for ErrorHandler and stops the chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// EnhancedRecoveryMiddleware turns a panic into a logged internal error.
func EnhancedRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				utils.Logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(utils.ContextRequestID)),
					zap.Stack("stack"))
				utils.TrackError(string(apperror.KindInternal), "panic")
				utils.WriteError(c, apperror.Internal(fmt.Errorf("panic: %v", r), "Internal server error"))
			}
		}()
		c.Next()
	}
}

// ErrorHandler renders the last error attached with c.Error. Errors without a
// kind are internal: logged in full and reported generically.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := apperror.As(err)
		if !ok {
			appErr = apperror.Internal(err, "Internal server error")
		}

		fields := []zap.Field{
			zap.String("type", string(appErr.Kind)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(utils.ContextRequestID)),
			zap.String("user_id", c.GetString(utils.ContextUserID)),
			zap.Error(err),
		}
		var ge *goerr.Error
		if errors.As(err, &ge) {
			fields = append(fields, zap.Any("values", ge.Values()))
		}

		switch appErr.Kind {
		case apperror.KindInternal, apperror.KindStorage:
			utils.Logger.Error("request failed", fields...)
		case apperror.KindUpstream:
			utils.Logger.Warn("request failed", fields...)
		default:
			utils.Logger.Info("request rejected", fields...)
		}

		utils.TrackError(string(appErr.Kind), routeLabel(c))
		utils.WriteError(c, appErr)
	}
}
