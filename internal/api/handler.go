// Package api 配煤优化 HTTP 接口
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elkindavid/soluciones-inteligentes/internal/service/blend"
	"github.com/elkindavid/soluciones-inteligentes/internal/service/excel"
	"github.com/elkindavid/soluciones-inteligentes/internal/store"
)

// Options 处理器运行参数
type Options struct {
	UploadDir      string
	SolveTimeout   time.Duration
	CokeLoss       float64
	ResultTTL      time.Duration
	MaxUploadBytes int64
	Version        string
	Layout         excel.Layout
}

// Handler API 处理器
type Handler struct {
	store     *store.Store
	optimizer *blend.Optimizer
	exporter  *excel.Exporter
	results   *resultStore
	logger    *zap.Logger
	opts      Options
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, optimizer *blend.Optimizer, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = 30 * time.Minute
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}
	if opts.Layout.HeaderRow == 0 {
		opts.Layout = excel.DefaultLayout()
	}
	return &Handler{
		store:     st,
		optimizer: optimizer,
		exporter:  excel.NewExporter(),
		results:   newResultStore(),
		logger:    logger,
		opts:      opts,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)

	router.POST("/optimize", h.Optimize)
	router.GET("/optimize/download/:token", h.DownloadResult)
	router.GET("/optimize/runs", h.ListRuns)
}
