// Package config provides application settings loaded with viper.
//
// Settings are created via New() which handles:
// - Defaults, then an optional omnireport.yaml, then OMNIREPORT_* variables
// - Validation of provider, language and numeric ranges
// - Credential seeding from the upstream services' usual variables

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/model"
	"github.com/richinex/omnireport/orchestration"
	"github.com/richinex/omnireport/search"
)

// EnvPrefix prefixes every environment override, e.g. OMNIREPORT_LLM_MODEL.
const EnvPrefix = "OMNIREPORT"

// Settings holds all application configuration.
type Settings struct {
	LLM         LLMConfig         `mapstructure:"llm"`
	Search      SearchConfig      `mapstructure:"search"`
	Report      ReportConfig      `mapstructure:"report"`
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Log         LogConfig         `mapstructure:"log"`
	Credentials model.Credentials `mapstructure:"-"`
}

// LLMConfig holds generation provider configuration.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	MaxTokens   uint32  `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
	BaseURL     string  `mapstructure:"base_url"`
	AppURL      string  `mapstructure:"app_url"`
	AppTitle    string  `mapstructure:"app_title"`
}

// SearchConfig holds Tavily configuration.
type SearchConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	MaxResults int    `mapstructure:"max_results"`
	Depth      string `mapstructure:"depth"`
	Topic      string `mapstructure:"topic"`
}

// ReportConfig holds run behaviour.
type ReportConfig struct {
	StepDelay  time.Duration `mapstructure:"step_delay"`
	Language   string        `mapstructure:"language"`
	ChromePath string        `mapstructure:"chrome_path"`
}

// ServerConfig holds the HTTP view's listen address.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig selects where credentials persist. An empty path keeps
// them in memory.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds slog setup.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProviderType returns the parsed generation provider.
func (s Settings) ProviderType() llm.ProviderType {
	p, _ := llm.ParseProviderType(s.LLM.Provider)
	return p
}

// Language returns the parsed report language.
func (s Settings) Language() orchestration.Language {
	lang, _ := orchestration.ParseLanguage(s.Report.Language)
	return lang
}

// New loads settings. configFile may be empty, in which case omnireport.yaml
// is looked up in the working directory and $HOME/.omnireport.
// Returns an error if the file is unreadable or a value is invalid.
func New(configFile string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("credentials.search_api_key", EnvPrefix+"_SEARCH_API_KEY", "TAVILY_API_KEY")
	_ = v.BindEnv("credentials.generation_api_key", EnvPrefix+"_GENERATION_API_KEY")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("omnireport")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".omnireport"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	provider, err := llm.ParseProviderType(s.LLM.Provider)
	if err != nil {
		return Settings{}, err
	}
	s.LLM.Provider = provider.String()
	if s.LLM.Model == "" {
		s.LLM.Model = provider.DefaultModel()
	}

	s.Credentials = model.Credentials{
		SearchAPIKey:     v.GetString("credentials.search_api_key"),
		GenerationAPIKey: v.GetString("credentials.generation_api_key"),
		Model:            s.LLM.Model,
	}
	if s.Credentials.GenerationAPIKey == "" {
		s.Credentials.GenerationAPIKey = os.Getenv(provider.EnvVar())
	}

	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", llm.ProviderOpenRouter.String())
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.max_tokens", llm.DefaultMaxTokens)
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.app_url", "https://omnireport.local")
	v.SetDefault("llm.app_title", "OmniReport")

	v.SetDefault("search.endpoint", "https://api.tavily.com/search")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.depth", search.DepthAdvanced)
	v.SetDefault("search.topic", "general")

	v.SetDefault("report.step_delay", orchestration.DefaultStepDelay)
	v.SetDefault("report.language", string(orchestration.English))
	v.SetDefault("report.chrome_path", "")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("storage.path", filepath.Join(".omnireport", "omnireport.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func (s Settings) validate() error {
	if _, err := orchestration.ParseLanguage(s.Report.Language); err != nil {
		return err
	}
	if s.Report.StepDelay < 0 {
		return fmt.Errorf("invalid report.step_delay: %s must not be negative", s.Report.StepDelay)
	}
	if s.Search.MaxResults <= 0 {
		return fmt.Errorf("invalid search.max_results: %d", s.Search.MaxResults)
	}
	switch s.Search.Depth {
	case search.DepthBasic, search.DepthAdvanced:
	default:
		return fmt.Errorf("invalid search.depth: %q", s.Search.Depth)
	}
	if s.LLM.MaxTokens == 0 {
		return errors.New("invalid llm.max_tokens: must be positive")
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		return fmt.Errorf("invalid llm.temperature: %v", s.LLM.Temperature)
	}
	switch strings.ToLower(s.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format: %q", s.Log.Format)
	}
	return nil
}
