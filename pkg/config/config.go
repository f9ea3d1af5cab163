package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upload   UploadConfig   `mapstructure:"upload"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Triage   TriageConfig   `mapstructure:"triage"`
	Model    ModelConfig    `mapstructure:"model"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type UploadConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type TriageConfig struct {
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type ModelConfig struct {
	// Provider is one of none, huggingface, openai or auto.
	Provider      string        `mapstructure:"provider"`
	HFToken       string        `mapstructure:"hf_token"`
	Endpoint      string        `mapstructure:"endpoint"`
	MaxInputChars int           `mapstructure:"max_input_chars"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ProbeOnStart  bool          `mapstructure:"probe_on_start"`
}

type PolicyConfig struct {
	KeywordConfidence float64 `mapstructure:"keyword_confidence"`
	ModelBoost        float64 `mapstructure:"model_boost"`
	MaxConfidence     float64 `mapstructure:"max_confidence"`
	ShortTextWords    int     `mapstructure:"short_text_words"`
	FallbackBase      float64 `mapstructure:"fallback_base"`
	FallbackStep      float64 `mapstructure:"fallback_step"`
	DefaultConfidence float64 `mapstructure:"default_confidence"`
	TieBreak          string  `mapstructure:"tie_break"`
	DefaultCategory   string  `mapstructure:"default_category"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// LoadConfig reads defaults, an optional .env file, an optional config file
// at path and the environment, in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("upload.dir", "")
	v.SetDefault("upload.max_bytes", 5<<20)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 200)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout", 30*time.Second)
	v.SetDefault("triage.max_tokens", 300)
	v.SetDefault("triage.temperature", 0.3)
	v.SetDefault("model.provider", "auto")
	v.SetDefault("model.hf_token", "")
	v.SetDefault("model.endpoint", "")
	v.SetDefault("model.max_input_chars", 512)
	v.SetDefault("model.timeout", 30*time.Second)
	v.SetDefault("model.probe_on_start", true)
	v.SetDefault("policy.keyword_confidence", 0.85)
	v.SetDefault("policy.model_boost", 0.10)
	v.SetDefault("policy.max_confidence", 0.95)
	v.SetDefault("policy.short_text_words", 20)
	v.SetDefault("policy.fallback_base", 0.70)
	v.SetDefault("policy.fallback_step", 0.05)
	v.SetDefault("policy.default_confidence", 0.60)
	v.SetDefault("policy.tie_break", "Improdutivo")
	v.SetDefault("policy.default_category", "Produtivo")
	v.SetDefault("telegram.token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed variables used by the deployment environment.
	bindings := map[string]string{
		"server.port":    "PORT",
		"openai.api_key": "OPENAI_API_KEY",
		"model.hf_token": "HF_API_TOKEN",
		"telegram.token": "TELEGRAM_TOKEN",
	}
	for key, env := range bindings {
		prefixed := "TRIAGE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}
