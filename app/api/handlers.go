package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/charity-comb/app/database"
	"github.com/lysyi3m/charity-comb/app/tasks"
)

// NewHandler creates a new API handler
func NewHandler(feedPath string, backend database.Backend, version string, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		feedPath:  feedPath,
		backend:   backend,
		version:   version,
		scheduler: scheduler,
	}
}

// GetFeed serves the last written RSS document, 404 until the first run
// has finished.
func (h *Handler) GetFeed(c *gin.Context) {
	data, err := os.ReadFile(h.feedPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to read feed document", "path", h.feedPath, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if info, err := os.Stat(h.feedPath); err == nil {
		c.Header("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
	}

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", data)
}

// GetHealth reports version, seen-set backend and the outcome of the last run
func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"backend":   h.backend,
	}

	if status := h.scheduler.LastRun(); status != nil {
		health["last_run"] = gin.H{
			"task_id":     status.TaskID,
			"trigger":     status.Trigger,
			"finished_at": status.FinishedAt.Format(time.RFC3339),
			"success":     status.Success,
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"last_run": h.scheduler.LastRun()})
}

// APIRun enqueues a build. It fails with 409 while another run is pending.
func (h *Handler) APIRun(c *gin.Context) {
	task, err := h.scheduler.EnqueueBuild("api")
	if err != nil {
		slog.Warn("Error enqueueing build task", "error", err)
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to enqueue build task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}
