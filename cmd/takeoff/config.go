// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/takeoff/pkg/types"
)

// envKeyReplacer maps nested keys to environment names, so that
// scan.documents_dir reads TAKEOFF_SCAN_DOCUMENTS_DIR.
var envKeyReplacer = strings.NewReplacer(".", "_")

var validate = validator.New(validator.WithRequiredStructEnabled())

func setDefaults(v *viper.Viper) {
	v.SetDefault("conversion.backend", string(types.BackendNative))
	v.SetDefault("conversion.documents_dir", "documents")
	v.SetDefault("scan.documents_dir", "documents")
	v.SetDefault("scan.takeoff_dir", "takeoff")
	v.SetDefault("scan.workers", 4)
	v.SetDefault("schedule.takeoff_dir", "takeoff")
	v.SetDefault("schedule.max_results", 50)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// loadConfig unmarshals the merged flag, environment, file and default
// settings in v and validates them.
func loadConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger. Unknown levels fall back to info.
func newLogger(cfg types.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
