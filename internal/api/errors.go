package api

import (
	"errors"
	"net/http"

	"github.com/bcnelson/spark/internal/logging"
	"github.com/bcnelson/spark/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindInvalidTransition:
		return http.StatusConflict
	case models.KindSchemaMismatch, models.KindGenerationFailed:
		return http.StatusBadGateway
	case models.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError is the single place errors become HTTP responses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := models.KindOf(err)
	status := statusFor(kind)
	code := string(kind)
	if code == "" {
		code = "INTERNAL"
	}

	log := logging.FromContext(c.Request.Context(), logger)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("code", code), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("code", code), zap.Error(err))
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// respondBindError reports a malformed or rule-breaking request body.
func respondBindError(c *gin.Context, err error) {
	var details interface{} = err.Error()

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		details = fields
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request format",
		Code:    string(models.KindValidation),
		Details: details,
	})
}
