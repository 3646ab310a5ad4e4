package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vault_bot/internal/app"
	"vault_bot/internal/config"
	"vault_bot/internal/logger"
	"vault_bot/internal/metrics"
	"vault_bot/internal/transport"
)

func main() {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	// 初始化logger
	logger.Init()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatalf("Failed to load config: %v", err)
	}

	// 注册metrics
	metrics.Register()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.L().Infof("Metrics listening on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.L().Errorf("Metrics server stopped: %v", err)
			}
		}()
	}

	// 初始化应用
	application, err := app.New(cfg)
	if err != nil {
		logger.L().Fatalf("Failed to init app: %v", err)
	}

	// 连接各账号会话并挂到中继上
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, ac := range cfg.Accounts {
		sess, err := transport.Connect(ctx, ac.AccountID, application.Relay)
		if err != nil {
			logger.L().Errorf("Failed to connect account %s: %v", ac.AccountID, err)
			continue
		}
		if err := application.AttachSession(ac.AccountID, sess); err != nil {
			logger.L().Errorf("Failed to attach account %s: %v", ac.AccountID, err)
		}
	}

	// 启动清理调度器
	application.StartCleaner()

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.L().Infof("Received signal %s, shutting down...", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := application.Close(shutdownCtx); err != nil {
		logger.L().Errorf("Shutdown error: %v", err)
	}

	logger.L().Info("Shutdown complete")
}
