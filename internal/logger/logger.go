// Package logger wires zap for the installer: colored console output on
// stderr plus an optional plain file core, with a dynamically adjustable
// level.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	Level    string
	FilePath string
}

var (
	mu          sync.RWMutex
	sugarLogger *zap.SugaredLogger
	atomicLevel zap.AtomicLevel
	logFile     *os.File
)

// Init initializes the logger at info level. The returned cleanup flushes
// buffered entries and closes the log file, if any.
func Init() (*zap.SugaredLogger, func()) {
	return InitWithLevel("info")
}

// InitWithLevel initializes the logger at the given level.
func InitWithLevel(level string) (*zap.SugaredLogger, func()) {
	log, cleanup, err := InitWithConfig(Config{Level: level})
	if err != nil {
		panic(fmt.Sprintf("logger initialization failed: %v", err))
	}
	return log, cleanup
}

// InitWithConfig initializes the logger from a full config.
func InitWithConfig(cfg Config) (*zap.SugaredLogger, func(), error) {
	mu.Lock()
	defer mu.Unlock()

	level := parseLevel(cfg.Level)
	if atomicLevel == (zap.AtomicLevel{}) {
		atomicLevel = zap.NewAtomicLevelAt(level)
	} else {
		atomicLevel.SetLevel(level)
	}

	encoderCfg := zap.NewDevelopmentConfig().EncoderConfig
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		atomicLevel,
	)
	cores := []zapcore.Core{consoleCore}

	if path := strings.TrimSpace(cfg.FilePath); path != "" {
		fileCore, handle, err := buildFileCore(encoderCfg, path)
		if err != nil {
			return nil, nil, err
		}
		if logFile != nil {
			_ = logFile.Close()
		}
		logFile = handle
		cores = append(cores, fileCore)
	}

	base := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	zap.ReplaceGlobals(base)
	sugarLogger = base.Sugar()

	cleanup := func() {
		mu.Lock()
		defer mu.Unlock()
		_ = base.Sync()
		if logFile != nil {
			_ = logFile.Close()
			logFile = nil
		}
	}
	return sugarLogger, cleanup, nil
}

func buildFileCore(encoderCfg zapcore.EncoderConfig, path string) (zapcore.Core, *os.File, error) {
	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory %q: %w", dir, err)
		}
	}

	file, err := os.OpenFile(cleaned, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %q: %w", cleaned, err)
	}

	fileEncoderCfg := encoderCfg
	fileEncoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(fileEncoderCfg),
		zapcore.AddSync(file),
		atomicLevel,
	)
	return core, file, nil
}

// Logger returns the process-wide sugared logger, initializing it at info
// level on first use.
func Logger() *zap.SugaredLogger {
	mu.RLock()
	log := sugarLogger
	mu.RUnlock()
	if log != nil {
		return log
	}
	log, _ = Init()
	return log
}

// With returns a child logger with the given key/value pairs attached.
func With(args ...interface{}) *zap.SugaredLogger {
	return Logger().With(args...)
}

// SetLogLevel changes the level of all cores at runtime.
func SetLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	if atomicLevel == (zap.AtomicLevel{}) {
		atomicLevel = zap.NewAtomicLevelAt(parseLevel(level))
		return
	}
	atomicLevel.SetLevel(parseLevel(level))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
