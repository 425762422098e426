package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/elkindavid/soluciones-inteligentes/internal/config"
	"github.com/elkindavid/soluciones-inteligentes/internal/logging"
	"github.com/elkindavid/soluciones-inteligentes/internal/server"
)

var (
	port     = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode  = flag.Bool("dev", false, "开发模式")
	dataDir  = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	logLevel = flag.String("log-level", "", "日志级别 (debug, info, warn, error)")

	solveFile = flag.String("solve", "", "直接求解工作簿并退出（不启动服务）")
	outFile   = flag.String("out", "resultados_optimizacion.xlsx", "-solve 模式的结果文件")
	minersArg = flag.Bool("solo-mineros", false, "-solve 模式：只用矿山直供")
	limitArg  = flag.Int("limite", 100, "-solve 模式：贸易商上限 (%)")
	modelArg  = flag.String("modelo", "precio", "-solve 模式：precio | costo_ccb")
)

func main() {
	flag.Parse()

	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"warn\", \"msg\": \"failed to load config, using defaults\", \"error\": \"%v\"}\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.String("op", "main"), zap.Error(err))
	}

	if *solveFile != "" {
		opts := solveOptions{
			path:       *solveFile,
			out:        *outFile,
			minersOnly: *minersArg,
			limit:      *limitArg,
			mode:       *modelArg,
		}
		if err := runSolve(context.Background(), cfg, logger, opts, os.Stdout); err != nil {
			logger.Error("solve failed", zap.String("op", "main"), zap.Error(err))
			os.Exit(1)
		}
		return
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.String("op", "main"), zap.Error(err))
	}
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.Int("port", cfg.Server.Port),
			zap.String("dataDir", config.ResolveDataDir(cfg)),
			zap.String("version", server.Version),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.String("op", "main"), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down", zap.String("op", "main"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.String("op", "main"), zap.Error(err))
	}
}
