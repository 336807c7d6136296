package internal

import (
	"os"
	"testing"

	"go.uber.org/zap"
)

// TestMain installs a console logger. ACTIVESTORE_TEST_LOG_LEVEL=debug shows
// every request the orchestrator issues.
func TestMain(m *testing.M) {
	level := zap.NewAtomicLevelAt(zap.WarnLevel)
	if v := os.Getenv("ACTIVESTORE_TEST_LOG_LEVEL"); v != "" {
		parsed, err := zap.ParseAtomicLevel(v)
		if err != nil {
			panic(err)
		}
		level = parsed
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.OutputPaths = []string{"stdout"}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)

	code := m.Run()
	_ = logger.Sync()
	os.Exit(code)
}
