package db

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger from cfg. Level "silent" yields a no-op
// logger; an empty level means info.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level := strings.ToLower(cfg.Level)
	if level == "silent" {
		return zap.NewNop(), nil
	}

	atom := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if level != "" {
		if err := atom.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("unknown log level %q", cfg.Level)
		}
	}

	zc := zap.NewProductionConfig()
	zc.Level = atom
	zc.DisableStacktrace = true
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		zc.Encoding = "json"
	case "console", "text":
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build()
}
