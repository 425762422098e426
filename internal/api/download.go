package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DownloadResult 下载结果工作簿（一次性令牌）
// GET /api/optimize/download/:token
func (h *Handler) DownloadResult(c *gin.Context) {
	sid := sessionID(c)
	d, ok := h.results.take(c.Param("token"), sid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No hay resultados para exportar."})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, xlsxMime, d.workbook)
}
