package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sheetlens/internal/theme"
	"github.com/KaramelBytes/sheetlens/internal/utils"
)

// Global configuration structure.
type Global struct {
	ListenAddr     string `mapstructure:"listen_addr" yaml:"listen_addr"`
	CacheTTLSec    int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	MaxUploadMB    int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	SheetsBaseURL  string `mapstructure:"sheets_base_url" yaml:"sheets_base_url,omitempty"`

	// Normalization and filtering
	Placeholder       string `mapstructure:"placeholder" yaml:"placeholder"`
	DecimalComma      bool   `mapstructure:"decimal_comma" yaml:"decimal_comma"`
	FilterMaxDistinct int    `mapstructure:"filter_max_distinct" yaml:"filter_max_distinct"`

	// Overview sampling
	LargeRowsThreshold  int   `mapstructure:"large_rows_threshold" yaml:"large_rows_threshold"`
	LargeBytesThreshold int64 `mapstructure:"large_bytes_threshold" yaml:"large_bytes_threshold"`
	SampleRows          int   `mapstructure:"sample_rows" yaml:"sample_rows"`
	SampleSeed          int64 `mapstructure:"sample_seed" yaml:"sample_seed"`

	// Dashboard
	DefaultTheme   string `mapstructure:"default_theme" yaml:"default_theme"`
	SessionIdleMin int    `mapstructure:"session_idle_min" yaml:"session_idle_min"`
	ChartWidth     int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight    int    `mapstructure:"chart_height" yaml:"chart_height"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
	LogJSON  bool   `mapstructure:"log_json" yaml:"log_json"`
}

// Dir returns ~/.sheetlens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".sheetlens"), nil
}

// LoadDotEnv loads .env from the working directory into the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sheetlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("cache_ttl_sec", 600)
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("max_upload_mb", 200)
	v.SetDefault("sheets_base_url", "")
	v.SetDefault("placeholder", "-")
	v.SetDefault("decimal_comma", false)
	v.SetDefault("filter_max_distinct", 100)
	v.SetDefault("large_rows_threshold", 10000)
	v.SetDefault("large_bytes_threshold", 10<<20)
	v.SetDefault("sample_rows", 50)
	v.SetDefault("sample_seed", 1)
	v.SetDefault("default_theme", theme.Default)
	v.SetDefault("session_idle_min", 60)
	v.SetDefault("chart_width", 1024)
	v.SetDefault("chart_height", 576)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_json", false)
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SHEETLENS")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns one key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	atoi := func(min int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "listen_addr":
		c.ListenAddr = val
	case "cache_ttl_sec":
		c.CacheTTLSec, err = atoi(0)
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(1)
	case "max_upload_mb":
		c.MaxUploadMB, err = atoi(1)
	case "sheets_base_url":
		c.SheetsBaseURL = val
	case "placeholder":
		c.Placeholder = val
	case "decimal_comma":
		c.DecimalComma, err = strconv.ParseBool(val)
		if err != nil {
			err = fmt.Errorf("invalid bool for %s: %v", key, val)
		}
	case "filter_max_distinct":
		c.FilterMaxDistinct, err = atoi(1)
	case "large_rows_threshold":
		c.LargeRowsThreshold, err = atoi(1)
	case "large_bytes_threshold":
		var i int
		i, err = atoi(1)
		c.LargeBytesThreshold = int64(i)
	case "sample_rows":
		c.SampleRows, err = atoi(1)
	case "sample_seed":
		var i int
		i, err = atoi(0)
		c.SampleSeed = int64(i)
	case "default_theme":
		th, ok := theme.Lookup(val)
		if !ok {
			return fmt.Errorf("invalid default_theme: %s (use one of %s)", val, strings.Join(theme.Names(), ", "))
		}
		c.DefaultTheme = th.Name
	case "session_idle_min":
		c.SessionIdleMin, err = atoi(0)
	case "chart_width":
		c.ChartWidth, err = atoi(100)
	case "chart_height":
		c.ChartHeight, err = atoi(100)
	case "log_level":
		switch strings.ToLower(val) {
		case "trace", "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_file":
		c.LogFile = val
	case "log_json":
		c.LogJSON, err = strconv.ParseBool(val)
		if err != nil {
			err = fmt.Errorf("invalid bool for %s: %v", key, val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
