// Package httputil translates domain errors into HTTP responses.
package httputil

import (
	"context"
	"errors"
	"net/http"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/gin-gonic/gin"
)

const internalMessage = "something went wrong, try again"

// Status maps the kind of err to an HTTP status code.
func Status(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch dmn.KindOf(err) {
	case dmn.KindNotFound:
		return http.StatusNotFound
	case dmn.KindInvalidState:
		return http.StatusConflict
	case dmn.KindValidation:
		return http.StatusBadRequest
	case dmn.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes {"error": message} with the status matching err.
// Internal errors are masked; the caller is expected to have logged them.
func AbortWithError(ctx *gin.Context, err error) {
	status := Status(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		msg = "game is busy, try again"
	case http.StatusInternalServerError:
		_ = ctx.Error(err)
		msg = internalMessage
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": msg})
}
