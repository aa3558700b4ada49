package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// App 应用事件日志，Init 之前指向标准输出。
var App = logrus.New()

// atLog 原始 AT 流量日志，独立于应用日志，仅写文件。
var atLog *logrus.Logger

// Init 初始化两个日志流：应用日志（文件+控制台）与 AT 流量日志（仅文件）。
// 每次运行生成新的日志文件。
func Init(logDir, level string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	atDir := filepath.Join(logDir, "at")
	if err := os.MkdirAll(atDir, 0755); err != nil {
		return fmt.Errorf("failed to create at log dir: %w", err)
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	appFile, err := os.Create(filepath.Join(logDir,
		fmt.Sprintf("app-log-%s.txt", time.Now().Format("20060102150405"))))
	if err != nil {
		return fmt.Errorf("failed to create app log file: %w", err)
	}
	App.SetLevel(lvl)
	App.SetOutput(io.MultiWriter(os.Stdout, appFile))
	App.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	atFile, err := os.Create(filepath.Join(atDir,
		time.Now().UTC().Format("2006-01-02T150405Z")+".log"))
	if err != nil {
		return fmt.Errorf("failed to create at log file: %w", err)
	}
	atLog = logrus.New()
	atLog.SetLevel(logrus.DebugLevel)
	atLog.SetOutput(atFile)
	atLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableLevelTruncation: true})

	App.Infof("Application log directory: %s", logDir)
	return nil
}

// TrafficTX 记录发往调制解调器的一行。
func TrafficTX(line string) {
	if atLog != nil {
		atLog.Infof("--> %s", line)
	}
}

// TrafficRX 记录来自调制解调器的一行。
func TrafficRX(line string) {
	if atLog != nil {
		atLog.Infof("<-- %s", line)
	}
}

// TrafficNote 记录超时、I/O 错误等事件，便于事后排查。
func TrafficNote(format string, args ...any) {
	if atLog != nil {
		atLog.Warnf(format, args...)
	}
}
