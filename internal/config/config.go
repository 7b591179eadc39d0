package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Mongo         MongoDBConfig       `mapstructure:"mongo"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type MongoDBConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	JWTKey   string        `mapstructure:"jwt_key"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// SchedulerConfig controls the recurring deadline jobs. Specs use the
// standard five-field cron format and are evaluated in Timezone.
type SchedulerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Timezone    string        `mapstructure:"timezone"`
	SweepSpec   string        `mapstructure:"sweep_spec"`
	CleanupSpec string        `mapstructure:"cleanup_spec"`
	JobTimeout  time.Duration `mapstructure:"job_timeout"`
}

type NotificationsConfig struct {
	StatusTTL      time.Duration `mapstructure:"status_ttl"`
	CleanupAge     time.Duration `mapstructure:"cleanup_age"`
	DefaultOffsets []int         `mapstructure:"default_offsets"`
	SweepRetries   uint64        `mapstructure:"sweep_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "unipath")
	v.SetDefault("mongo.timeout", 10*time.Second)

	v.SetDefault("auth.jwt_key", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.sweep_spec", "0 9 * * *")
	v.SetDefault("scheduler.cleanup_spec", "0 0 * * 0")
	v.SetDefault("scheduler.job_timeout", 30*time.Minute)

	v.SetDefault("notifications.status_ttl", 90*24*time.Hour)
	v.SetDefault("notifications.cleanup_age", 30*24*time.Hour)
	v.SetDefault("notifications.default_offsets", []int{30, 14, 7, 1})
	v.SetDefault("notifications.sweep_retries", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads config.yaml (if any) and environment variables. Nested keys map
// to env vars by replacing dots with underscores, e.g. MONGO_URI.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return errors.New("mongo.uri (MONGO_URI) is required")
	}
	if c.Auth.JWTKey == "" {
		return errors.New("auth.jwt_key (AUTH_JWT_KEY) is required")
	}
	for _, d := range c.Notifications.DefaultOffsets {
		if d < 0 {
			return errors.Errorf("notifications.default_offsets contains negative offset %d", d)
		}
	}
	return nil
}
