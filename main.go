package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rehiy/modem-connect/config"
	"github.com/rehiy/modem-connect/database"
	"github.com/rehiy/modem-connect/logger"
	"github.com/rehiy/modem-connect/netconf"
	"github.com/rehiy/modem-connect/router"
	"github.com/rehiy/modem-connect/watchdog"
)

func main() {
	onlyMonitor := flag.Bool("OnlyMonitor", false, "skip the connect cycle and only monitor an existing session")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.App.Fatalf("Invalid configuration: %v", err)
	}
	cfg.OnlyMonitor = *onlyMonitor

	if err := logger.Init(cfg.LogDir, os.Getenv("LOG_LEVEL")); err != nil {
		logger.App.Fatalf("Failed to initialize logging: %v", err)
	}
	logger.App.Infof("=== modem-connect%s ===", monitorSuffix(cfg.OnlyMonitor))

	// 初始化连接日志数据库
	if err := database.InitDB(cfg.DBPath); err != nil {
		logger.App.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	wd := watchdog.New(cfg, netconf.NewApplier(nil))

	// 启动状态接口
	go func() {
		logger.App.Infof("Status server starting on :%s", cfg.ListenPort)
		if err := http.ListenAndServe(":"+cfg.ListenPort, router.Apply(wd.Status())); err != nil {
			logger.App.Errorf("Status server stopped: %v", err)
		}
	}()

	// 中断信号触发干净退出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := wd.Run(ctx); err != nil {
		logger.App.Errorf("Fatal: %v", err)
		database.Close()
		os.Exit(1)
	}

	logger.App.Info("Shutdown complete")
}

func monitorSuffix(onlyMonitor bool) string {
	if onlyMonitor {
		return " (monitor)"
	}
	return ""
}
