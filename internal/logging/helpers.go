package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogLevelFromString converts string to LogLevel
func LogLevelFromString(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// InitializeFromConfig builds the global logger from configuration and
// returns it so main can defer Close.
func InitializeFromConfig(logConfig LogConfig) (*Logger, error) {
	if logConfig.LogDir != "" {
		if err := os.MkdirAll(logConfig.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	logFile := logConfig.LogFile
	if logFile == "" && logConfig.EnableFile {
		logFile = "pressurecache.log"
		if logConfig.LogDir != "" {
			logFile = filepath.Join(logConfig.LogDir, logFile)
		}
	}

	logger := NewLogger(Config{
		Level:         LogLevelFromString(logConfig.Level),
		EnableConsole: logConfig.EnableConsole,
		EnableFile:    logConfig.EnableFile,
		LogFile:       logFile,
		MaxFileSizeMB: logConfig.MaxFileSizeMB,
		MaxFiles:      logConfig.MaxFiles,
		BufferSize:    logConfig.BufferSize,
	})
	SetGlobalLogger(logger)

	return logger, nil
}

// LogConfig represents logging configuration (matching the YAML structure)
type LogConfig struct {
	Level         string `yaml:"level"`
	EnableConsole bool   `yaml:"enable_console"`
	EnableFile    bool   `yaml:"enable_file"`
	LogFile       string `yaml:"log_file"`
	LogDir        string `yaml:"log_dir"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
	MaxFiles      int    `yaml:"max_files"`
	BufferSize    int    `yaml:"buffer_size"`
}

// ComponentNames for structured logging
const (
	ComponentHTTP    = "http"
	ComponentCache   = "cache"
	ComponentEvictor = "evictor"
	ComponentMemory  = "memory"
	ComponentConfig  = "config"
	ComponentMain    = "main"
)

// ActionNames for structured logging
const (
	ActionStart    = "start"
	ActionStop     = "stop"
	ActionRequest  = "request"
	ActionResponse = "response"
	ActionPut      = "put"
	ActionGet      = "get"
	ActionEvict    = "evict"
	ActionSample   = "sample"
	ActionValidate = "validate"
)
