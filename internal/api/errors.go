package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const externalFailureMessage = "clinical service unavailable, please retry"

// classify maps an error onto an HTTP status and the APIError envelope
func classify(err error, requestID string) (int, *domain.APIError) {
	var (
		validation *domain.ValidationError
		illegal    *domain.IllegalStateError
		external   *domain.ExternalServiceError
		config     *domain.ConfigurationError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, domain.NewAPIError(domain.ErrCodeValidation, validation.Message, "field="+validation.Field, requestID)
	case errors.Is(err, domain.ErrInvalidPresence),
		errors.Is(err, domain.ErrInvalidUrgencyLevel),
		errors.Is(err, domain.ErrInvalidSex),
		errors.Is(err, domain.ErrInvalidSpecialty):
		return http.StatusBadRequest, domain.NewAPIError(domain.ErrCodeValidation, err.Error(), "", requestID)
	case errors.As(err, &illegal):
		return http.StatusConflict, domain.NewAPIError(domain.ErrCodeIllegalState, illegal.Error(), "stage="+string(illegal.Stage), requestID)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.NewAPIError(domain.ErrCodeNotFound, err.Error(), "", requestID)
	case errors.As(err, &external):
		return http.StatusBadGateway, domain.NewAPIError(domain.ErrCodeExternal, externalFailureMessage, "operation="+external.Operation, requestID)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, domain.NewAPIError(domain.ErrCodeTimeout, "request timed out", "", requestID)
	case errors.As(err, &config):
		return http.StatusInternalServerError, domain.NewAPIError(domain.ErrCodeConfiguration, "service misconfigured", "", requestID)
	default:
		return http.StatusInternalServerError, domain.NewAPIError(domain.ErrCodeInternal, "internal server error", "", requestID)
	}
}

// respondError writes the envelope and logs server-side failures
func (s *Server) respondError(c *gin.Context, err error) {
	status, apiErr := classify(err, c.GetString(requestIDKey))

	entry := s.logger.WithFields(logrus.Fields{
		"request_id": apiErr.RequestID,
		"path":       c.FullPath(),
		"status":     status,
		"code":       apiErr.Code,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	c.AbortWithStatusJSON(status, apiErr)
}

// bindError converts a gin binding failure into a validation error
func bindError(err error) error {
	return domain.NewValidationError("body", "malformed request body: "+err.Error(), nil)
}
