// Package config holds the small, dependency-free configuration types
// shared between internal/logger and the top-level cfg package, mirroring
// the split between gcsfuse's legacy config.LogConfig and its newer
// cfg.LoggingConfig.
package config

// LogRotateConfig controls lumberjack-backed log file rotation.
type LogRotateConfig struct {
	MaxFileSizeMB  int
	BackupFileCount int
	Compress        bool
}

// DefaultLogRotateConfig mirrors gcsfuse's cfg.defaults.go rotation
// defaults.
func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{
		MaxFileSizeMB:   512,
		BackupFileCount: 10,
		Compress:        true,
	}
}

// LoggingConfig is the full logging configuration: where to write, at what
// severity, and in what wire format.
type LoggingConfig struct {
	FilePath  string
	Severity  string
	Format    string
	LogRotate LogRotateConfig
}

// DefaultLoggingConfig mirrors gcsfuse's cfg.GetDefaultLoggingConfig.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity:  "INFO",
		Format:    "text",
		LogRotate: DefaultLogRotateConfig(),
	}
}
