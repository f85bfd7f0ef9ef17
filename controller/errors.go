package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mango-chat-backend/response"
)

// Error codes returned in the response envelope alongside the HTTP status.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeNotFound      = "NOT_FOUND"
	CodeRateLimit     = "RATE_LIMIT"
	CodeConfigError   = "CONFIG_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

var (
	ErrInvalidRequest  = errors.New("invalid request body")
	ErrEmptyMessage    = errors.New("message content is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotSessionOwner = errors.New("session does not belong to this visitor")
	ErrMissingVisitor  = errors.New("visitor identity is required")
)

// codeFor maps a sentinel error to its envelope code and HTTP status.
// Unrecognized errors are internal faults and keep their detail out of the
// client response.
func codeFor(err error) (code string, status int) {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrEmptyMessage):
		return CodeBadRequest, http.StatusBadRequest
	case errors.Is(err, ErrNotSessionOwner), errors.Is(err, ErrMissingVisitor):
		return CodeUnauthorized, http.StatusForbidden
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrMessageNotFound):
		return CodeNotFound, http.StatusNotFound
	default:
		return CodeInternalError, http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	code, status := codeFor(err)

	msg := err.Error()
	if code == CodeInternalError {
		msg = "internal server error"
	}

	c.AbortWithStatusJSON(status, response.Response{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}
