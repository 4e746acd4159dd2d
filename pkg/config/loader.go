package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the environment-specific YAML file and
// environment variables, validates it, and returns the resulting Config
// together with the viper instance for change watching.
func Load() (*Config, *viper.Viper, error) {
	// Missing env files are fine; deployments inject real environment.
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

// WatchLogLevel re-reads the log level whenever the config file changes and
// applies it through the provided leveler. Other settings require a restart.
func WatchLogLevel(v *viper.Viper, level *slog.LevelVar, log *slog.Logger) {
	if v == nil || level == nil {
		return
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		if event.Op&fsnotify.Write == 0 {
			return
		}

		raw := v.GetString("logger.level")
		parsed, err := ParseLevel(raw)
		if err != nil {
			if log != nil {
				log.Warn("ignoring invalid log level from config reload", slog.String("level", raw))
			}
			return
		}

		level.Set(parsed)
		if log != nil {
			log.Info("log level updated", slog.String("level", raw))
		}
	})
	v.WatchConfig()
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}
