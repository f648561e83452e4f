// LLM Provider Factory - builder-first API for creating LLM providers.
//
// Quick Start:
//
//	provider, err := llm.NewProviderBuilder(llm.ProviderOpenRouter).
//	    Model(llm.ModelOpenRouterClaude35Sonnet).
//	    MaxTokens(4000).
//	    Temperature(0.7).
//	    App("https://omnireport.local", "OmniReport").
//	    APIKey(key)

package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenRouter routes to many vendors through one OpenAI-compatible API.
	ProviderOpenRouter ProviderType = iota
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// Generation defaults.
const (
	DefaultMaxTokens   uint32  = 4000
	DefaultTemperature float32 = 0.7
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenRouter:
		return "openrouter"
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenRouter:
		return ModelOpenRouterGeminiFlash2
	case ProviderOpenAI:
		return ModelOpenAIGPT4o
	case ProviderAnthropic:
		return ModelAnthropicClaude35Sonnet
	case ProviderDeepSeek:
		return ModelDeepSeekChat
	case ProviderGemini:
		return ModelGeminiFlash2
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "openrouter":
		return ProviderOpenRouter, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// ProviderConfig is the resolved configuration handed to provider constructors.
type ProviderConfig struct {
	APIKey      string
	Model       string
	MaxTokens   uint32
	Temperature float32
	// BaseURL overrides the vendor endpoint when set.
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string
	// AppURL and AppTitle are sent as attribution headers by OpenRouter.
	AppURL   string
	AppTitle string
}

// ProviderBuilder is a builder for configuring LLM providers.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	maxTokens    uint32
	temperature  *float32
	baseURL      string
	httpClient   *http.Client
	appURL       string
	appTitle     string
}

// NewProviderBuilder creates a new builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{
		providerType: providerType,
	}
}

// Model sets the model to use.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// MaxTokens sets maximum tokens for responses.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Temperature sets temperature (0.0 = deterministic, 1.0 = creative).
func (b *ProviderBuilder) Temperature(temp float32) *ProviderBuilder {
	b.temperature = &temp
	return b
}

// BaseURL points the provider at a different endpoint.
func (b *ProviderBuilder) BaseURL(url string) *ProviderBuilder {
	b.baseURL = url
	return b
}

// HTTPClient sets the HTTP client used for requests.
func (b *ProviderBuilder) HTTPClient(client *http.Client) *ProviderBuilder {
	b.httpClient = client
	return b
}

// App sets the application URL and title used for attribution.
func (b *ProviderBuilder) App(url, title string) *ProviderBuilder {
	b.appURL = url
	b.appTitle = title
	return b
}

// APIKey builds the provider with an explicit API key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	return b.build(key)
}

func (b *ProviderBuilder) config(apiKey string) ProviderConfig {
	cfg := ProviderConfig{
		APIKey:      apiKey,
		Model:       b.model,
		MaxTokens:   b.maxTokens,
		Temperature: DefaultTemperature,
		BaseURL:     b.baseURL,
		HTTPClient:  b.httpClient,
		AppURL:      b.appURL,
		AppTitle:    b.appTitle,
	}
	if cfg.Model == "" {
		cfg.Model = b.providerType.DefaultModel()
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if b.temperature != nil {
		cfg.Temperature = *b.temperature
	}
	return cfg
}

func (b *ProviderBuilder) build(apiKey string) (Provider, error) {
	cfg := b.config(apiKey)

	switch b.providerType {
	case ProviderOpenRouter:
		return NewOpenRouterProvider(cfg), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(cfg), nil
	case ProviderGemini:
		return NewGeminiProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

// Model identifier constants for all supported providers.

// OpenRouter model identifiers
const (
	// ModelOpenRouterGeminiFlash2 is Gemini 2.0 Flash via OpenRouter. Default.
	ModelOpenRouterGeminiFlash2 = "google/gemini-2.0-flash-001"
	// ModelOpenRouterGeminiPro15 is Gemini Pro 1.5 via OpenRouter.
	ModelOpenRouterGeminiPro15 = "google/gemini-pro-1.5"
	// ModelOpenRouterClaude35Sonnet is Claude 3.5 Sonnet via OpenRouter.
	ModelOpenRouterClaude35Sonnet = "anthropic/claude-3.5-sonnet"
	// ModelOpenRouterGPT4o is GPT-4o via OpenRouter.
	ModelOpenRouterGPT4o = "openai/gpt-4o"
)

// OpenAI model identifiers
const (
	ModelOpenAIGPT4o     = "gpt-4o"
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
)

// Anthropic model identifiers
const (
	ModelAnthropicClaude35Sonnet = "claude-3-5-sonnet-latest"
	ModelAnthropicClaudeSonnet4  = "claude-sonnet-4-20250514"
)

// DeepSeek model identifiers
const (
	ModelDeepSeekChat     = "deepseek-chat"
	ModelDeepSeekReasoner = "deepseek-reasoner"
)

// Gemini model identifiers
const (
	ModelGeminiFlash2 = "gemini-2.0-flash"
	ModelGeminiPro15  = "gemini-1.5-pro"
)
