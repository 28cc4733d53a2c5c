package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the service reads
const EnvPrefix = "MINDFUL"

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Session      SessionConfig      `mapstructure:"session"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Speech       SpeechConfig       `mapstructure:"speech"`
	Stream       StreamConfig       `mapstructure:"stream"`
	Security     SecurityConfig     `mapstructure:"security"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SessionConfig struct {
	DurationSeconds int `mapstructure:"duration_seconds" validate:"min=1"`
}

// Duration returns the auto-end delay of a session
func (c SessionConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver" validate:"oneof=sqlite postgres mysql"`
	URL         string `mapstructure:"url" validate:"required"`
	MaxConns    int32  `mapstructure:"max_conns" validate:"min=1"`
	MinConns    int32  `mapstructure:"min_conns" validate:"min=0"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// MigrateURL returns the golang-migrate database URL for the configured store
func (c DatabaseConfig) MigrateURL() string {
	switch c.Driver {
	case "sqlite":
		return "sqlite://" + strings.TrimPrefix(c.URL, "file:")
	case "mysql":
		dsn := c.URL
		if !strings.Contains(dsn, "multiStatements=") {
			if strings.Contains(dsn, "?") {
				dsn += "&multiStatements=true"
			} else {
				dsn += "?multiStatements=true"
			}
		}
		return "mysql://" + dsn
	default:
		return c.URL
	}
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ConversationConfig struct {
	Store    string        `mapstructure:"store" validate:"oneof=memory redis"`
	Capacity int           `mapstructure:"capacity" validate:"min=1"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SpeechConfig struct {
	EnableTTS   bool         `mapstructure:"enable_tts"`
	Transcriber string       `mapstructure:"transcriber" validate:"oneof=mock gemini"`
	Synthesizer string       `mapstructure:"synthesizer" validate:"oneof=silent openai"`
	Gemini      GeminiConfig `mapstructure:"gemini"`
	OpenAI      OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	AudioMIMEType string `mapstructure:"audio_mime_type"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Voice   string `mapstructure:"voice"`
	BaseURL string `mapstructure:"base_url"`
}

type StreamConfig struct {
	ReadLimitBytes int64  `mapstructure:"read_limit_bytes" validate:"min=1"`
	AuthEnabled    bool   `mapstructure:"auth_enabled"`
	TokenSecret    string `mapstructure:"token_secret" validate:"required_if=AuthEnabled true"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format" validate:"oneof=json console"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Speech.Transcriber == "gemini" && c.Speech.Gemini.APIKey == "" {
		return fmt.Errorf("invalid config: speech.gemini.api_key is required for the gemini transcriber")
	}
	if c.Speech.Synthesizer == "openai" {
		if c.Speech.OpenAI.APIKey == "" {
			return fmt.Errorf("invalid config: speech.openai.api_key is required for the openai synthesizer")
		}
		if _, err := url.Parse(c.Speech.OpenAI.BaseURL); err != nil {
			return fmt.Errorf("invalid config: speech.openai.base_url: %w", err)
		}
	}
	if c.Conversation.Store == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("invalid config: conversation.store=redis requires redis.enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Session
	v.SetDefault("session.duration_seconds", 300)

	// Database
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "mindful.db")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.auto_migrate", true)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Conversation state
	v.SetDefault("conversation.store", "memory")
	v.SetDefault("conversation.capacity", 1024)
	v.SetDefault("conversation.ttl", "1h")

	// Speech
	v.SetDefault("speech.enable_tts", false)
	v.SetDefault("speech.transcriber", "mock")
	v.SetDefault("speech.synthesizer", "silent")
	v.SetDefault("speech.gemini.model", "gemini-2.5-flash")
	v.SetDefault("speech.gemini.audio_mime_type", "audio/webm")
	v.SetDefault("speech.openai.model", "tts-1")
	v.SetDefault("speech.openai.voice", "alloy")
	v.SetDefault("speech.openai.base_url", "https://api.openai.com/v1")

	// Stream
	v.SetDefault("stream.read_limit_bytes", 1<<20)
	v.SetDefault("stream.auth_enabled", false)

	// Security
	v.SetDefault("security.rate_limit.requests_per_minute", 30)
	v.SetDefault("security.rate_limit.burst", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")
}

func bindEnvVars(v *viper.Viper) {
	// Names used by earlier deployments
	v.BindEnv("database.url", "MINDFUL_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("speech.enable_tts", "MINDFUL_SPEECH_ENABLE_TTS", "MINDFUL_ENABLE_TEXT_TO_SPEECH")

	// Secrets
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("speech.gemini.api_key", "MINDFUL_SPEECH_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("speech.openai.api_key", "MINDFUL_SPEECH_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("stream.token_secret", "MINDFUL_STREAM_TOKEN_SECRET", "STREAM_TOKEN_SECRET")
}
