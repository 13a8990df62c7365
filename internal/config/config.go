package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/thywilljoshua/pdf-chapters/internal/credential"
)

// EnvPrefix namespaces environment overrides, e.g. PDFCHAPTERS_SERVER_ADDR.
const EnvPrefix = "PDFCHAPTERS"

// Config holds every runtime setting. The API key is not among them; it only
// ever comes from the user through the UI or `key set`.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Credential CredentialConfig `mapstructure:"credential"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type GeminiConfig struct {
	Model       string  `mapstructure:"model"`
	Language    string  `mapstructure:"language"`
	Temperature float32 `mapstructure:"temperature"`
	BaseURL     string  `mapstructure:"base_url"`
}

type UploadConfig struct {
	MaxMB int `mapstructure:"max_mb"`
}

// MaxBytes is the upload cap in bytes.
func (u UploadConfig) MaxBytes() int64 { return int64(u.MaxMB) << 20 }

type CredentialConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.language", "Korean")
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("upload.max_mb", 20)
	v.SetDefault("credential.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load resolves configuration from defaults, an optional YAML file, a .env
// file, the environment and any flags already bound to v, in increasing order
// of precedence.
func Load(v *viper.Viper, file string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Credential.Path == "" {
		p, err := credential.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfg.Credential.Path = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return &Error{Field: "server.addr", Message: "must not be empty"}
	}
	if strings.TrimSpace(c.Gemini.Model) == "" {
		return &Error{Field: "gemini.model", Message: "must not be empty"}
	}
	if strings.TrimSpace(c.Gemini.Language) == "" {
		return &Error{Field: "gemini.language", Message: "must not be empty"}
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return &Error{Field: "gemini.temperature", Message: "must be between 0 and 2"}
	}
	if c.Upload.MaxMB <= 0 || c.Upload.MaxMB > 100 {
		return &Error{Field: "upload.max_mb", Message: "must be between 1 and 100"}
	}
	return nil
}

// Error reports an invalid setting.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}
