package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elkindavid/soluciones-inteligentes/internal/api"
	"github.com/elkindavid/soluciones-inteligentes/internal/config"
	"github.com/elkindavid/soluciones-inteligentes/internal/service/blend"
	"github.com/elkindavid/soluciones-inteligentes/internal/store"
)

// Version 构建版本，由 main 通过 -ldflags 设置
var Version = "dev"

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	api    *api.Handler
	logger *zap.Logger
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	sqliteStore, err := store.New(filepath.Join(dataDir, "mezcla.db"))
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	optimizer := blend.NewOptimizer(logger.Named("blend"), cfg.Optimizer.Tolerance)
	handler := api.NewHandler(sqliteStore, optimizer, logger.Named("api"), api.Options{
		UploadDir:      filepath.Join(dataDir, "uploads"),
		SolveTimeout:   cfg.SolveTimeout(),
		CokeLoss:       cfg.Optimizer.CokeLoss,
		ResultTTL:      cfg.ResultTTL(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Version:        Version,
	})

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	s := &Server{
		router: router,
		store:  sqliteStore,
		api:    handler,
		logger: logger,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(recovery(s.logger), requestLogger(s.logger), cors())

	apiGroup := s.router.Group("/api")
	s.api.RegisterRoutes(apiGroup)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "ruta no encontrada"})
	})
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestLogger 每个请求一条 zap 日志
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("op", "http"),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error("panic recovered",
			zap.String("op", "http"),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
	})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 关闭数据库
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
