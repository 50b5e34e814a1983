package config

import (
	"go.uber.org/zap"
)

// BuildLogger constructs a zap logger from the logger section. Console
// encoding uses the development preset, everything else the production one.
func (c LoggerConfig) BuildLogger() (*zap.Logger, error) {
	var zcfg zap.Config
	if c.Encoding == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.Encoding = "json"
	}

	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zcfg.Level = level
	zcfg.DisableCaller = c.DisableCaller
	zcfg.DisableStacktrace = c.DisableStacktrace

	return zcfg.Build()
}
