package bootstrap

import (
	"fmt"
	"os"

	"backend/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger initializes the zap logger with colored console output at the given level.
func InitLogger(level string) (*zap.Logger, *zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder // Colored levels
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder        // Readable timestamps
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder      // Short file paths

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		lvl,
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, logger.Sugar(), nil
}

// InitConfig loads the application configuration from path, or from the
// default locations when path is empty. It runs before the logger exists;
// failures are returned for the caller to report.
func InitConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.LoadConfig()
	} else {
		cfg, err = config.LoadConfigFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// logConfig records the resolved settings, with credentials redacted.
func logConfig(cfg *config.Config, sugar *zap.SugaredLogger) {
	adminPort := cfg.Admin.Port
	if adminPort == "" {
		adminPort = "disabled"
	}
	sugar.Infow("Config loaded",
		"port", cfg.Port,
		"mongo_uri", cfg.RedactedMongoURI(),
		"mongo_connect_timeout", cfg.MongoDB.ConnectTimeout,
		"admin_port", adminPort,
		"rate_limit", cfg.API.RateLimit.Enabled,
		"log_level", cfg.Log.Level)
}
