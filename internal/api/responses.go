package api

import (
	"errors"
	"net/http"

	"eventix/internal/apperr"
	"eventix/internal/logger"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"ok"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"something went wrong"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Success: true, Message: msg})
}

func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Success: false, Message: msg})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrGatewayFailure):
		return http.StatusBadGateway
	case apperr.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the failure envelope for err. Internal errors are logged
// and replaced by a generic message.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		Fail(c, status, "internal server error")
	case http.StatusBadGateway:
		logger.Warn("payment gateway failure", "path", c.FullPath(), "error", err)
		Fail(c, status, err.Error())
	default:
		Fail(c, status, err.Error())
	}
}
