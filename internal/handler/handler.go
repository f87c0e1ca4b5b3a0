// Package handler holds the REST read endpoints. Every handler reads state
// through the dispatch loop so it never observes a half-applied event.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr-mark-a/messagecaller/internal/dispatch"
)

// Runner executes fn on the dispatch loop and waits for it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// onLoop runs fn through r and writes an error response when it could not
// run. It reports whether fn ran.
func onLoop(c *gin.Context, r Runner, fn func()) bool {
	err := r.Do(c.Request.Context(), fn)
	switch {
	case err == nil:
		return true
	case errors.Is(err, dispatch.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server is shutting down"})
	default:
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "Request cancelled"})
	}
	return false
}
