package handler

import (
	"net/http"
	"time"

	"github.com/fabtrain/console/internal/form"
	"github.com/fabtrain/console/internal/hub"
	"github.com/fabtrain/console/internal/response"
	"github.com/fabtrain/console/internal/service"
	"github.com/gin-gonic/gin"
)

// SystemHandler reports liveness and the console status bar.
type SystemHandler struct {
	backend     Connectivity
	hub         *hub.Hub
	formService *service.FormService
	startTime   time.Time
}

func NewSystemHandler(backend Connectivity, h *hub.Hub, formService *service.FormService) *SystemHandler {
	return &SystemHandler{
		backend:     backend,
		hub:         h,
		formService: formService,
		startTime:   time.Now(),
	}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"status":    "ok",
		"connected": h.backend.Connected(),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Status godoc
// GET /api/v1/status
// Returns the connection state, the current UI mode and submit labels.
func (h *SystemHandler) Status(c *gin.Context) {
	labels := make(gin.H, len(form.Kinds()))
	for _, kind := range form.Kinds() {
		labels[string(kind)] = h.formService.Label(kind)
	}
	response.Success(c, http.StatusOK, gin.H{
		"connected": h.backend.Connected(),
		"mode":      h.hub.Mode(),
		"labels":    labels,
	})
}
