package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"tms/internal/db"
	"tms/internal/serializer"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps the size of a create or update request body.
const MaxBodyBytes = 1 << 20

// ListTasks returns every task.
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.store.ListTasks(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.RenderList(tasks))
}

// CreateTask validates the body and stores a new task.
func (h *Handler) CreateTask(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	draft, err := serializer.ParseCreate(body)
	if err != nil {
		h.fail(c, err)
		return
	}

	task, err := h.store.InsertTask(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.WithField("task_id", task.ID).Info("Task created")
	c.JSON(http.StatusCreated, serializer.Render(task))
}

// GetTask returns a single task.
func (h *Handler) GetTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		notFound(c)
		return
	}

	task, err := h.store.GetTask(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Render(task))
}

// UpdateTask serves both PUT and PATCH: only the fields present in the body change.
func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		notFound(c)
		return
	}

	body, err := readBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	patch, err := serializer.ParseUpdate(body)
	if err != nil {
		h.fail(c, err)
		return
	}

	task, err := h.store.UpdateTask(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.WithField("task_id", task.ID).Info("Task updated")
	c.JSON(http.StatusOK, serializer.Render(task))
}

// DeleteTask permanently removes a task.
func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		notFound(c)
		return
	}

	if err := h.store.DeleteTask(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	h.log.WithField("task_id", id).Info("Task deleted")
	c.Status(http.StatusNoContent)
}

func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
}

// taskID parses the :id path segment. Only positive integers name a task.
func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// fail writes the response for err.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		verr *serializer.ValidationError
		cerr *db.ConstraintError
		berr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, db.ErrNotFound):
		notFound(c)
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.As(err, &cerr):
		c.JSON(http.StatusBadRequest, map[string][]string{cerr.Field: {cerr.Reason}})
	case errors.As(err, &berr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": fmt.Sprintf("Request body exceeds %d bytes.", berr.Limit)})
	case errors.Is(err, serializer.ErrMalformedPayload):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "A server error occurred."})
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}
