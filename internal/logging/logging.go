package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the service logger. Production mode emits JSON; anything else
// gets the console encoder with debug enabled.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
