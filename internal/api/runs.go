package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxRunLimit = 100

// ListRuns 会话最近的优化记录
// GET /api/optimize/runs?limit=20
func (h *Handler) ListRuns(c *gin.Context) {
	sid := sessionID(c)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit inválido"})
		return
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}

	runs, err := h.store.ListRuns(sid, limit)
	if err != nil {
		h.logger.Error("list runs failed", zap.String("op", "api.ListRuns"), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
