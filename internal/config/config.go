// Package config loads obexbrowse settings. Values come, in increasing order
// of precedence, from built-in defaults, an optional YAML file,
// OBEXBROWSE_* environment variables, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"obex-browser/internal/logging"
	"obex-browser/internal/storage"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix          = "OBEXBROWSE"
	DefaultScanTimeout = 8 * time.Second
	configName         = "obexbrowse"
)

// Config stores all configuration of the application.
type Config struct {
	// ScanTimeout bounds device discovery.
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
	// DownloadDir receives downloaded files.
	DownloadDir string `mapstructure:"download_dir"`
	// Device is a Bluetooth address to use instead of prompting.
	Device string `mapstructure:"device"`
	// LocalRoot, when set, browses a local directory instead of a device.
	LocalRoot string `mapstructure:"local_root"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func (c LogConfig) Logging() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format, OutputPath: c.Output}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"scan-timeout": "scan_timeout",
	"download-dir": "download_dir",
	"device":       "device",
	"local-root":   "local_root",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-output":   "log.output",
}

// Load reads configuration from configPath (or the default search paths when
// empty), the environment, and the flags that were set on flags. flags may be
// nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("scan_timeout", DefaultScanTimeout)
	v.SetDefault("download_dir", storage.DefaultDir)
	v.SetDefault("device", "")
	v.SetDefault("local_root", "")
	v.SetDefault("log.level", logging.DefaultLevel)
	v.SetDefault("log.format", logging.DefaultFormat)
	v.SetDefault("log.output", logging.DefaultOutput)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag --%s", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	if cfg.ScanTimeout <= 0 {
		return nil, errors.Errorf("scan timeout must be positive, got %s", cfg.ScanTimeout)
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = storage.DefaultDir
	}
	return &cfg, nil
}
