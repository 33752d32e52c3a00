// Package cfg is the top-level, viper/cobra-bindable configuration surface
// for cmd/vfsdemo, mirroring the split gcsfuse draws between its cfg
// package (user-facing knobs, flag/env/file bound via viper) and
// internal/config (the smaller, dependency-free types shared with the
// logger).
package cfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lunaixsky/vfscore/internal/config"
	"github.com/lunaixsky/vfscore/vfs"
)

// Octal is the datatype for params such as mount-mode that accept a
// base-8 value, the same convention gcsfuse's cfg.Octal uses for
// file-mode/dir-mode flags.
type Octal int

func (o *Octal) UnmarshalText(text []byte) error {
	v, err := strconv.ParseInt(string(text), 8, 32)
	if err != nil {
		return err
	}
	*o = Octal(v)
	return nil
}

func (o Octal) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(o), 8)), nil
}

// LogSeverity mirrors gcsfuse's cfg.LogSeverity: the logging severity as a
// validated string, one of the six names internal/logger understands.
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

var validSeverities = []LogSeverity{
	TraceLogSeverity, DebugLogSeverity, InfoLogSeverity,
	WarningLogSeverity, ErrorLogSeverity, OffLogSeverity,
}

func (s *LogSeverity) UnmarshalText(text []byte) error {
	v := LogSeverity(strings.ToUpper(string(text)))
	for _, candidate := range validSeverities {
		if v == candidate {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("invalid log severity: %q, must be one of %v", text, validSeverities)
}

// Config is the full set of knobs cmd/vfsdemo exposes: the two LRU zones'
// soft capacities (§4.C), a symlink recursion bound (§4.E), mount-point
// permission bits, and logging. SymlinkMaxDepth and MountMode are parsed
// and validated but not passed on: the walker always uses
// vfs.VfsSymlinkDepth, and no driver receives a mount mode.
type Config struct {
	DnodeCacheSize  int             `mapstructure:"dnode-cache-size"`
	InodeCacheSize  int             `mapstructure:"inode-cache-size"`
	SymlinkMaxDepth int             `mapstructure:"symlink-max-depth"`
	MountMode       Octal           `mapstructure:"mount-mode"`
	LogSeverity     LogSeverity     `mapstructure:"log-severity"`
	LogFormat       string          `mapstructure:"log-format"`
	LogFilePath     string          `mapstructure:"log-file"`
}

// DefaultConfig mirrors gcsfuse's GetDefaultLoggingConfig-style
// application-startup defaults, pulling the cache/symlink defaults
// straight from the vfs package's own constants so the two never drift.
func DefaultConfig() Config {
	return Config{
		DnodeCacheSize:  vfs.DefaultDnodeCapacity,
		InodeCacheSize:  vfs.DefaultInodeCapacity,
		SymlinkMaxDepth: vfs.VfsSymlinkDepth,
		MountMode:       0755,
		LogSeverity:     InfoLogSeverity,
		LogFormat:       "text",
	}
}

// BindPFlags registers every Config field as a persistent flag on flags,
// the way gcsfuse's cmd package wires cfg fields onto its root cobra
// command.
func BindPFlags(flags *pflag.FlagSet) {
	d := DefaultConfig()
	flags.Int("dnode-cache-size", d.DnodeCacheSize, "soft capacity of the dnode LRU zone")
	flags.Int("inode-cache-size", d.InodeCacheSize, "soft capacity of the inode LRU zone")
	flags.Int("symlink-max-depth", d.SymlinkMaxDepth, "maximum symlink recursion depth (not applied: the walker uses vfs.VfsSymlinkDepth)")
	flags.String("mount-mode", "0755", "permission bits for a driver's mount point, as an octal string (not passed to any driver)")
	flags.String("log-severity", string(d.LogSeverity), "TRACE, DEBUG, INFO, WARNING, ERROR, or OFF")
	flags.String("log-format", d.LogFormat, "text or json")
	flags.String("log-file", "", "log file path; empty means stderr")
}

// Load binds flags into v and unmarshals the result into a Config,
// validating LogSeverity and parsing MountMode's octal string along the
// way.
func Load(v *viper.Viper, flags *pflag.FlagSet) (Config, error) {
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, err
	}
	v.SetEnvPrefix("VFSCORE")
	v.AutomaticEnv()

	c := DefaultConfig()
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}

	if mode := v.GetString("mount-mode"); mode != "" {
		if err := (&c.MountMode).UnmarshalText([]byte(mode)); err != nil {
			return Config{}, err
		}
	}
	if err := (&c.LogSeverity).UnmarshalText([]byte(v.GetString("log-severity"))); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Logging projects Config's logging fields into the internal/config type
// that internal/logger.InitLogFile consumes.
func (c Config) Logging() config.LoggingConfig {
	lc := config.DefaultLoggingConfig()
	lc.Severity = string(c.LogSeverity)
	lc.Format = c.LogFormat
	lc.FilePath = c.LogFilePath
	return lc
}
