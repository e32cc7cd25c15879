package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/mentorhub-backend/internal/logger"
	"github.com/ignatzorin/mentorhub-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mentorhub-backend/internal/repository"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"

		var appErr *apperror.AppError
		switch {
		case errors.As(err, &appErr):
			statusCode = appErr.HTTPStatus
			message = appErr.Message
		case errors.Is(err, repository.ErrUserNotFound):
			statusCode = http.StatusNotFound
			message = "пользователь не найден"
		case errors.Is(err, repository.ErrMessageNotFound):
			statusCode = http.StatusNotFound
			message = "сообщение не найдено"
		case errors.Is(err, repository.ErrReportNotFound):
			statusCode = http.StatusNotFound
			message = "жалоба не найдена"
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}
