package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Environment variables read by ApplyEnv and the command line.
const (
	EnvDataDir        = "DYNATAB_DATA_DIR"
	EnvLogLevel       = "DYNATAB_LOG_LEVEL"
	EnvListenPort     = "DYNATAB_LISTEN_PORT"
	EnvMDNSName       = "DYNATAB_MDNS_NAME"
	EnvScale          = "DYNATAB_SCALE"
	EnvRequirePolling = "DYNATAB_REQUIRE_POLLING"
)

// ApplyEnv overrides settings from DYNATAB_* environment variables.
func ApplyEnv(s Settings) Settings {
	s.ListenPort = EnvInt(EnvListenPort, s.ListenPort)
	s.MDNSName = EnvStr(EnvMDNSName, s.MDNSName)
	s.Scale = EnvInt(EnvScale, s.Scale)
	if v := os.Getenv(EnvRequirePolling); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.RequirePolling = b
		}
	}
	return s
}

// EnvStr returns the value of key or fallback when unset.
func EnvStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvInt returns the integer value of key or fallback when unset or invalid.
func EnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
