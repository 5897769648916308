package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Constants for default paths
const (
	defaultStoragePath = "./files"
	defaultLogDir      = "./log"
)

// Constants for upload settings
const (
	defaultNameLength = 4
	defaultMaxFiles   = 20
)

// DefaultBlockedTypes are MIME types rejected after sniffing. Windows
// executables are listed under every name the sniffer may report them as.
var DefaultBlockedTypes = []string{
	"application/x-dosexec",
	"application/vnd.microsoft.portable-executable",
	"application/x-msdownload",
	"application/x-executable",
	"application/x-hdf5",
	"application/java-archive",
	"application/jar",
	"application/java-vm",
	"application/x-java-applet",
	"application/vnd.android.package-archive",
}

// Config represents the application configuration. It is read once at
// startup and never mutated afterwards.
type Config struct {
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
	Debug   bool   `mapstructure:"debug"`

	MaxSize       float64 `mapstructure:"max_size_mib"`   // Maximum file size in MiB
	MinAge        float64 `mapstructure:"min_age_days"`   // Minimum retention in days
	MaxAge        float64 `mapstructure:"max_age_days"`   // Maximum retention in days
	DecayExponent float64 `mapstructure:"decay_exponent"` // Larger values punish large files
	MaxFiles      int     `mapstructure:"max_files"`      // Files accepted per request

	StoragePath  string   `mapstructure:"storage_path"`
	NameLength   int      `mapstructure:"name_length"` // Minimum length of generated names
	BlockedTypes []string `mapstructure:"blocked_types"`

	UploadLogPath string `mapstructure:"upload_log_path"`
	ErrorLogPath  string `mapstructure:"error_log_path"`
	PurgeLogPath  string `mapstructure:"purge_log_path"`

	PurgeEnabled  bool `mapstructure:"purge_enabled"`      // Run purge passes in-process
	CheckInterval int  `mapstructure:"check_interval_min"` // How often to purge (minutes)

	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	AuthUser       string `mapstructure:"auth_user"`
	AuthPassword   string `mapstructure:"auth_password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("base_url", "http://localhost:8080/")
	v.SetDefault("debug", false)

	v.SetDefault("max_size_mib", 512.0)
	v.SetDefault("min_age_days", 7.0)
	v.SetDefault("max_age_days", 365.0)
	v.SetDefault("decay_exponent", 3.0)
	v.SetDefault("max_files", defaultMaxFiles)

	v.SetDefault("storage_path", defaultStoragePath)
	v.SetDefault("name_length", defaultNameLength)
	v.SetDefault("blocked_types", DefaultBlockedTypes)

	v.SetDefault("upload_log_path", defaultLogDir+"/ofu-upload.{date}.log")
	v.SetDefault("error_log_path", defaultLogDir+"/ofu-error.{date}.log")
	v.SetDefault("purge_log_path", defaultLogDir+"/ofu-purge.{date}.log")

	v.SetDefault("purge_enabled", false)
	v.SetDefault("check_interval_min", 60)

	v.SetDefault("metrics_enabled", true)
	v.SetDefault("auth_user", "")
	v.SetDefault("auth_password", "")
}

// LoadConfig loads the configuration from the YAML file at path, layered over
// defaults and OFU_* environment variables. An empty path loads defaults and
// environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ofu")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration obtained from defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks the retention and upload settings for consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.MinAge <= 0 {
		errs = append(errs, errors.New("min_age_days must be greater than 0"))
	}
	if c.MaxAge <= c.MinAge {
		errs = append(errs, errors.New("max_age_days must be greater than min_age_days"))
	}
	if c.MaxSize <= 0 {
		errs = append(errs, errors.New("max_size_mib must be greater than 0"))
	}
	if c.DecayExponent <= 0 {
		errs = append(errs, errors.New("decay_exponent must be greater than 0"))
	}
	if c.NameLength <= 0 {
		errs = append(errs, errors.New("name_length must be greater than 0"))
	}
	if c.MaxFiles <= 0 {
		errs = append(errs, errors.New("max_files must be greater than 0"))
	}
	if c.PurgeEnabled && c.CheckInterval <= 0 {
		errs = append(errs, errors.New("check_interval_min must be greater than 0"))
	}
	if c.StoragePath == "" {
		errs = append(errs, errors.New("storage_path must be set"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether basic authentication is configured. Both the
// user and the password must be set.
func (c *Config) AuthEnabled() bool {
	return c.AuthUser != "" && c.AuthPassword != ""
}

func (c *Config) MaxSizeToBytes() int64 {
	return int64(c.MaxSize * 1024 * 1024)
}

// MaxRequestBytes bounds a whole upload request: every accepted file at the
// size limit plus room for multipart framing.
func (c *Config) MaxRequestBytes() int64 {
	return c.MaxSizeToBytes()*int64(c.MaxFiles) + 1024*1024
}
