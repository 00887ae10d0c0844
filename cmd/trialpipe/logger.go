// cmd/trialpipe/logger.go
package main

import (
	"fmt"

	"go.uber.org/zap"
)

// newLogger builds a production (json) or development (console) logger
func newLogger(level, format string) (*zap.Logger, error) {
	var zcfg zap.Config
	switch format {
	case "json", "":
		zcfg = zap.NewProductionConfig()
	case "console":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format: %q", format)
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg.Level = lvl

	return zcfg.Build()
}
