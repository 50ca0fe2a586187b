package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over values from
// config files: FEEDBACK_SERVER_PORT overrides server.port, and so on.
// Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing file is fine, the environment can carry everything.
	}

	v.SetEnvPrefix("FEEDBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values so that only secrets and
// endpoints are mandatory in the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")

	// Empty defaults register the env-only keys with viper so that
	// AutomaticEnv values survive Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("inference.base_url", "")
	v.SetDefault("inference.api_token", "")
	v.SetDefault("nlu.url", "")
	v.SetDefault("nlu.api_key", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("automation.base_url", "")
	v.SetDefault("automation.api_key", "")

	v.SetDefault("inference.timeout", 30*time.Second)
	v.SetDefault("nlu.timeout", 30*time.Second)
	v.SetDefault("automation.timeout", 60*time.Second)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")

	v.SetDefault("worker.claim_limit", 5)
	v.SetDefault("worker.idle_interval", 30*time.Second)
	v.SetDefault("worker.batch_interval", 10*time.Second)
	v.SetDefault("worker.error_interval", 60*time.Second)
	v.SetDefault("worker.retry_delay", 5*time.Minute)

	v.SetDefault("analysis.call_timeout", 30*time.Second)
	v.SetDefault("analysis.group_size", 5)
	v.SetDefault("analysis.group_delay", time.Second)
}

// validate runs struct validation over the loaded configuration and
// wraps the first failure with the offending field path.
func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid configuration: field %s failed on %q",
				verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
