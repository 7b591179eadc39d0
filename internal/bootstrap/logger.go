package bootstrap

import (
	"UniPath/internal/config"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. Format "console" selects the
// development encoder; anything else logs JSON.
func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing log level %q", cfg.Logging.Level)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Logging.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	zap.ReplaceGlobals(logger)

	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger, nil
}

// FxLogger routes fx's own lifecycle events through zap.
func FxLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}
