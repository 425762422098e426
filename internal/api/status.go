package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elkindavid/soluciones-inteligentes/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Status           string        `json:"status"` // ok | degraded
	Version          string        `json:"version"`
	Database         bool          `json:"database"` // sqlite 可用
	LastUpload       *store.Upload `json:"lastUpload"`
	PendingDownloads int           `json:"pendingDownloads"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	sid := sessionID(c)
	resp := StatusResponse{
		Status:           "ok",
		Version:          h.opts.Version,
		Database:         h.store.Ping() == nil,
		PendingDownloads: h.results.len(),
	}
	if !resp.Database {
		resp.Status = "degraded"
	}

	if u, err := h.store.LastUpload(sid); err == nil {
		resp.LastUpload = u
	} else if !errors.Is(err, store.ErrNotFound) {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}
