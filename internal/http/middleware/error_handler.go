package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/roadassist/roadassist-backend/internal/dto"
	"github.com/roadassist/roadassist-backend/internal/logger"
	"github.com/roadassist/roadassist-backend/internal/pkg/apperror"
)

// ErrorHandler превращает ошибки, сложенные в c.Error, в единый JSON-ответ
// с машинным кодом. AppError отдаётся клиенту как есть; всё остальное
// маскируется как INTERNAL_ERROR, чтобы не светить внутренности наружу.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			// Конфликт захвата и дубль подтверждения — штатные исходы,
			// им хватает Info.
			entry := logger.Log.WithFields(logrus.Fields{
				"code":   appErr.Code,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				entry.WithError(err).Error("запрос завершился ошибкой")
			} else {
				entry.Info("запрос отклонён")
			}

			c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
				Code:    string(appErr.Code),
				Message: appErr.Message,
			})
			return
		}

		logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("необработанная ошибка запроса")

		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    string(apperror.ErrCodeInternal),
			Message: "внутренняя ошибка сервера",
		})
	}
}
