// Package logger provides centralized logging using arbor.
package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	arborcommon "github.com/ternarybob/arbor/common"
	"github.com/ternarybob/arbor/models"
	"github.com/doge-run/doge/internal/config"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger instance.
// If InitLogger() hasn't been called yet, returns a fallback console logger.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	// Double-check after acquiring write lock
	if globalLogger == nil {
		// WARNING: Using fallback logger - InitLogger() should be called during startup
		globalLogger = arbor.NewLogger().WithConsoleWriter(createWriterConfig(models.LogWriterTypeConsole, ""))
		// Log warning about initialization order issue
		globalLogger.Warn().Msg("Using fallback logger - InitLogger() should be called during startup")
	}
	return globalLogger
}

// InitLogger stores the provided logger as the global singleton instance.
func InitLogger(logger arbor.ILogger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	globalLogger = logger
}

// SetupLogger configures and initializes the global logger for a project
// root, writing to `<project>/.doge/logs/doge.log` as well as the console.
func SetupLogger(cfg *config.Config) arbor.ILogger {
	logger := arbor.NewLogger()

	logsDir := filepath.Join(cfg.DogeDir(), "logs")

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		tempLogger := logger.WithConsoleWriter(createWriterConfig(models.LogWriterTypeConsole, ""))
		tempLogger.Warn().Err(err).Str("logs_dir", logsDir).Msg("Failed to create logs directory")
	} else {
		logFile := filepath.Join(logsDir, "doge.log")
		logger = logger.WithFileWriter(createWriterConfig(models.LogWriterTypeFile, logFile))
	}

	logger = logger.WithConsoleWriter(createWriterConfig(models.LogWriterTypeConsole, ""))
	logger = logger.WithMemoryWriter(createWriterConfig(models.LogWriterTypeMemory, ""))
	logger = logger.WithLevelFromString("info")

	InitLogger(logger)

	return logger
}

// createWriterConfig creates a standard writer configuration.
func createWriterConfig(writerType models.LogWriterType, filename string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             writerType,
		FileName:         filename,
		TimeFormat:       "15:04:05.000",
		OutputType:       models.OutputFormatLogfmt,
		DisableTimestamp: false,
		MaxSize:          100 * 1024 * 1024,
		MaxBackups:       5,
	}
}

// Stop flushes any remaining context logs before application shutdown.
// Safe to call multiple times (Arbor's Stop is idempotent).
func Stop() {
	arborcommon.Stop()
}
