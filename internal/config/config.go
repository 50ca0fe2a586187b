package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Inference  InferenceConfig  `mapstructure:"inference"  validate:"required"`
	NLU        NLUConfig        `mapstructure:"nlu"        validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Automation AutomationConfig `mapstructure:"automation" validate:"required"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port"       validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level"  validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json console"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// InferenceConfig configures the hosted-model inference API used for
// sentiment analysis and zero-shot topic classification.
type InferenceConfig struct {
	BaseURL  string        `mapstructure:"base_url"  validate:"required,url"`
	APIToken string        `mapstructure:"api_token" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// NLUConfig configures the natural-language-understanding API used for
// entity, keyword, and category extraction.
type NLUConfig struct {
	URL     string        `mapstructure:"url"      validate:"required,url"`
	APIKey  string        `mapstructure:"api_key"  validate:"required"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig contains the refinement model integration settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
}

// AutomationConfig configures the downstream automation dispatch target.
type AutomationConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	APIKey  string        `mapstructure:"api_key"  validate:"required"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// WorkerConfig tunes the automation job worker loop. Zero values fall
// back to the worker package defaults.
type WorkerConfig struct {
	ClaimLimit    int           `mapstructure:"claim_limit"    validate:"omitempty,gt=0"`
	IdleInterval  time.Duration `mapstructure:"idle_interval"`
	BatchInterval time.Duration `mapstructure:"batch_interval"`
	ErrorInterval time.Duration `mapstructure:"error_interval"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// AnalysisConfig tunes the analysis pipeline. Zero values fall back to
// the analysis package defaults.
type AnalysisConfig struct {
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	GroupSize   int           `mapstructure:"group_size"   validate:"omitempty,gt=0"`
	GroupDelay  time.Duration `mapstructure:"group_delay"`
}
