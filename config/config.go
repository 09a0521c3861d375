package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pkgfetch/s3presign/credentials"
	presignhttp "github.com/pkgfetch/s3presign/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for s3presign.
type Config struct {
	Sources map[string]Source      `mapstructure:"s3_source"`
	Sign    SignConfig             `mapstructure:"sign"`
	Server  ServerConfig           `mapstructure:"server"`
	CORS    presignhttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig              `mapstructure:"log"`
}

// Source is one s3_source table entry, keyed by bucket host.
type Source struct {
	Provider      string `mapstructure:"provider" yaml:"provider,omitempty"`
	ID            string `mapstructure:"id" yaml:"id,omitempty"`
	Secret        string `mapstructure:"secret" yaml:"secret,omitempty"`
	SecurityToken string `mapstructure:"security_token" yaml:"security_token,omitempty"`
	Region        string `mapstructure:"region" yaml:"region,omitempty"`
}

// SignConfig holds signing defaults.
type SignConfig struct {
	Expires          int64  `mapstructure:"expires" validate:"min=0"`
	MetadataEndpoint string `mapstructure:"metadata_endpoint" validate:"omitempty,url"`
}

// ServerConfig holds HTTP server configuration for the serve command.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// Source implements credentials.SourceStore. Host lookup is normalized
// to lowercase; viper already lowercases the table's keys on load.
func (c *Config) Source(host string) (credentials.Source, bool) {
	src, ok := c.Sources[strings.ToLower(host)]
	if !ok {
		return credentials.Source{}, false
	}
	return credentials.Source{
		Provider:      src.Provider,
		ID:            src.ID,
		Secret:        src.Secret,
		SecurityToken: src.SecurityToken,
		Region:        src.Region,
	}, true
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":              "server.port",
	"expires":           "sign.expires",
	"metadata-endpoint": "sign.metadata_endpoint",
	"log-level":         "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sign.expires", 86400) // one day
	v.SetDefault("sign.metadata_endpoint", "")

	v.SetDefault("server.port", 8642)

	v.SetDefault("cors.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("S3PRESIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
