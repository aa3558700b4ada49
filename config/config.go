package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置，全部来源于环境变量或 .env 文件。
type Config struct {
	ModemMACAddress   string
	SerialPortKeyword string
	BaudRate          int
	APN               string
	APNUser           string
	APNPass           string
	DNSOverride       []string

	ATTimeout     time.Duration
	ATLongTimeout time.Duration
	PollInterval  time.Duration
	RetryDelay    time.Duration
	RetryMax      int

	PingTarget string
	ListenPort string
	DBPath     string
	LogDir     string
	OnlyMonitor bool
}

// Load 加载配置并校验必填项。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ModemMACAddress:   getEnv("MODEM_MAC_ADDRESS", ""),
		SerialPortKeyword: getEnv("SERIAL_PORT_KEYWORD", "acm"),
		BaudRate:          getEnvAsInt("BAUD_RATE", 115200),
		APN:               getEnv("APN", "internet"),
		APNUser:           getEnv("APN_USER", ""),
		APNPass:           getEnv("APN_PASS", ""),
		DNSOverride:       getEnvAsList("DNS_OVERRIDE"),
		ATTimeout:         getEnvAsDuration("AT_TIMEOUT", 10*time.Second),
		ATLongTimeout:     getEnvAsDuration("AT_LONG_TIMEOUT", 60*time.Second),
		PollInterval:      getEnvAsDuration("POLL_INTERVAL", 5*time.Second),
		RetryDelay:        getEnvAsDuration("RETRY_DELAY", 5*time.Second),
		RetryMax:          getEnvAsInt("RETRY_MAX", 0),
		PingTarget:        getEnv("PING_TARGET", "8.8.8.8"),
		ListenPort:        getEnv("LISTEN_PORT", "8080"),
		DBPath:            getEnv("DB_PATH", "data/modem-connect.db"),
		LogDir:            getEnv("LOG_DIR", "logs"),
	}

	if cfg.ModemMACAddress == "" {
		return nil, fmt.Errorf("MODEM_MAC_ADDRESS is required")
	}
	if _, err := net.ParseMAC(NormalizeMAC(cfg.ModemMACAddress)); err != nil {
		return nil, fmt.Errorf("invalid MODEM_MAC_ADDRESS %q: %w", cfg.ModemMACAddress, err)
	}
	for _, dns := range cfg.DNSOverride {
		if net.ParseIP(dns) == nil {
			return nil, fmt.Errorf("invalid DNS_OVERRIDE entry %q", dns)
		}
	}
	// 防止连接循环空转
	if cfg.RetryDelay < time.Second {
		cfg.RetryDelay = time.Second
	}

	return cfg, nil
}

// NormalizeMAC 统一 MAC 地址格式：小写、连字符转冒号。
func NormalizeMAC(mac string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(mac), "-", ":"))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	// 纯数字按秒解释，否则按 Go duration 解析
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var list []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
