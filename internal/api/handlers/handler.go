package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/Legalistas/brixar-sub002/internal/api/middleware"
	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/services"
)

// IAsynqClient defines the interface for the Asynq client methods used by the handlers.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// errorStatus maps the service error classes to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {error} for a classified error and logs anything unexpected.
func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		config.LogError(config.GetLogger(), "api", c.HandlerName(), c.Request.Method+" "+c.FullPath(), nil, err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
}

// parseID reads a positive numeric path parameter, answering 400 when it is malformed.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// principal returns the caller, answering 401 when the auth middleware did not run.
func principal(c *gin.Context) (services.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return p, ok
}

// enqueue submits a background task; failures are logged and never fail the request.
func enqueue(c *gin.Context, client IAsynqClient, build func() (*asynq.Task, error)) {
	if client == nil {
		return
	}
	task, err := build()
	if err != nil {
		config.LogError(config.GetLogger(), "api", "enqueue", "build task", nil, err)
		return
	}
	if _, err := client.EnqueueContext(c.Request.Context(), task); err != nil {
		config.LogError(config.GetLogger(), "api", "enqueue", task.Type(), nil, err)
	}
}
