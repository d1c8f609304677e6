package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dshills/lamp/internal/providers"
	"github.com/dshills/lamp/internal/review"
)

// APIError is the JSON error envelope returned by every endpoint.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// toAPIError maps pipeline and provider errors onto HTTP statuses.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var tooLarge *review.PayloadTooLargeError
	switch {
	case errors.As(err, &tooLarge):
		return &APIError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    "PAYLOAD_TOO_LARGE",
			Message: tooLarge.Error(),
			Details: "remove files or raise maxTokens, or resubmit with force=true",
		}
	case errors.Is(err, review.ErrNoFiles):
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "NO_REVIEWABLE_FILES",
			Message: err.Error(),
		}
	}

	switch providers.Kind(err) {
	case providers.KindAuth:
		return &APIError{Status: http.StatusUnauthorized, Code: "AUTH_ERROR", Message: "invalid or missing API key"}
	case providers.KindQuota:
		return &APIError{Status: http.StatusTooManyRequests, Code: "QUOTA_EXCEEDED", Message: "provider quota or rate limit reached", Details: err.Error()}
	case providers.KindTransport:
		return &APIError{Status: http.StatusGatewayTimeout, Code: "UPSTREAM_UNAVAILABLE", Message: "could not reach the model provider", Details: err.Error()}
	case providers.KindProtocol:
		return &APIError{Status: http.StatusBadGateway, Code: "UPSTREAM_PROTOCOL_ERROR", Message: "model provider returned an unusable response", Details: err.Error()}
	case providers.KindUnknown:
		return &APIError{Status: http.StatusBadGateway, Code: "UPSTREAM_ERROR", Message: "model provider returned an error", Details: err.Error()}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := "HTTP_ERROR"
		if he.Code == http.StatusRequestEntityTooLarge {
			code = "REQUEST_TOO_LARGE"
		}
		return &APIError{Status: he.Code, Code: code, Message: fmt.Sprintf("%v", he.Message)}
	}

	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: "an unexpected error occurred",
	}
}

// errorHandler is installed as echo's HTTPErrorHandler.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.Path()),
			zap.Int("status", apiErr.Status),
			zap.Error(err))
	}
	if err := c.JSON(apiErr.Status, apiErr); err != nil {
		s.log.Warn("writing error response", zap.Error(err))
	}
}
