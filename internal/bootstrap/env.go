package bootstrap

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Loadenv loads a .env file into the process environment when one exists.
// It runs before the logger is configured, so it reports through the
// global zap logger.
func Loadenv() {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("no .env file found, using system environment variables")
	}
}
