// OpenRouter Provider implementation using go-openai library.
//
// Information Hiding:
// - OpenRouter base URL
// - Attribution headers (HTTP-Referer, X-Title) on every request

package llm

const openrouterBaseURL = "https://openrouter.ai/api/v1"

// Attribution header names understood by OpenRouter.
const (
	HeaderReferer = "HTTP-Referer"
	HeaderTitle   = "X-Title"
)

// NewOpenRouterProvider creates a new OpenRouter provider. The model is an
// OpenRouter model ID such as "google/gemini-2.0-flash-001".
func NewOpenRouterProvider(cfg ProviderConfig) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openrouterBaseURL
	}
	headers := map[string]string{
		HeaderReferer: cfg.AppURL,
		HeaderTitle:   cfg.AppTitle,
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	cfg.Headers = headers
	return newCompatProvider("openrouter", cfg)
}
