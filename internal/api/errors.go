package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openbook/hub/internal/apperr"
)

// Error is the JSON body of every failed request
type Error struct {
	Code    int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

// NewError creates a new API error
func NewError(code int, kind, message string) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// statusFor maps an application error kind to its HTTP status. Permission
// and rule violations are client errors reported as 400.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindPermissionDenied, apperr.KindInvalidOperation, apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// toAPIError converts err into the body sent to the client. Server faults
// never leak their message.
func toAPIError(err error) *Error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnknown {
		return NewError(http.StatusInternalServerError, "server_error", "internal server error")
	}
	return NewError(statusFor(kind), kind.String(), apperr.MessageOf(err))
}

// abortWithError writes err and stops the handler chain
func abortWithError(c *gin.Context, logger *zap.Logger, err error) {
	abort(c, logger, err, toAPIError(err))
}

// abortWithStaffError is abortWithError for the staff and ban endpoints,
// which reject an unknown community or user with 400 like any other
// invalid request
func abortWithStaffError(c *gin.Context, logger *zap.Logger, err error) {
	apiErr := toAPIError(err)
	if apiErr.Code == http.StatusNotFound {
		apiErr.Code = http.StatusBadRequest
	}
	abort(c, logger, err, apiErr)
}

func abort(c *gin.Context, logger *zap.Logger, err error, apiErr *Error) {
	if apiErr.Code >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(apiErr.Code, apiErr)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, NewError(http.StatusBadRequest, apperr.KindValidation.String(), message))
}
