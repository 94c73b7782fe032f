// Package api exposes the task collection over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"

	"tms/internal/db/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskStore is the persistence the handlers need. *db.DB implements it.
type TaskStore interface {
	InsertTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context) ([]*models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Pinger reports whether the backing database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	store  TaskStore
	pinger Pinger
	log    logrus.FieldLogger
}

func NewHandler(store TaskStore, pinger Pinger, log logrus.FieldLogger) *Handler {
	return &Handler{
		store:  store,
		pinger: pinger,
		log:    log,
	}
}

// NewRouter builds the gin engine serving the task API. mode is a gin mode
// name; empty keeps gin's current mode.
func NewRouter(h *Handler, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestID(), accessLog(h.log))
	r.NoRoute(func(c *gin.Context) {
		notFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": fmt.Sprintf("Method %q not allowed.", c.Request.Method)})
	})
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)

	tasks := r.Group("/tasks")
	{
		tasks.GET("/", h.ListTasks)
		tasks.POST("/", h.CreateTask)
		tasks.GET("/:id/", h.GetTask)
		tasks.PUT("/:id/", h.UpdateTask)
		tasks.PATCH("/:id/", h.UpdateTask)
		tasks.DELETE("/:id/", h.DeleteTask)
	}
}

// Health reports whether the database is reachable.
func (h *Handler) Health(c *gin.Context) {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request.Context()); err != nil {
			h.log.WithError(err).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
