// LLMClient - per-call provider construction for user-supplied credentials.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/richinex/omnireport/model"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	Provider  ProviderType
	MaxTokens uint32
	// Temperature is sent as given, zero included. Nil means
	// DefaultTemperature.
	Temperature *float32
	BaseURL     string
	HTTPClient  *http.Client
	AppURL      string
	AppTitle    string
	// OnUsage, when set, receives token usage for every successful call.
	OnUsage func(TokenUsage)
}

// Client builds a Provider per call from the caller's key and model, so no
// credential is held between runs.
type Client struct {
	opts ClientOptions
}

// NewClient creates a new LLM client.
func NewClient(opts ClientOptions) *Client {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Client{opts: opts}
}

// Generate sends one chat completion and returns the assistant text. With
// jsonMode the provider is asked for a single JSON object. Upstream failures
// come back as *model.GenerationServiceError.
func (c *Client) Generate(ctx context.Context, messages []ChatMessage, modelID, apiKey string, jsonMode bool) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("%s api key: %w", c.opts.Provider, model.ErrMissingCredential)
	}

	provider, err := c.provider(modelID, apiKey)
	if err != nil {
		return "", err
	}

	var format *ResponseFormat
	if jsonMode {
		format = NewJSONObjectFormat()
	}

	resp, err := provider.ChatWithFormat(ctx, messages, format)
	if err != nil {
		return "", asServiceError(err)
	}
	if resp.Usage != nil && c.opts.OnUsage != nil {
		c.opts.OnUsage(*resp.Usage)
	}
	return resp.Content, nil
}

func (c *Client) provider(modelID, apiKey string) (Provider, error) {
	b := NewProviderBuilder(c.opts.Provider).
		Model(modelID).
		MaxTokens(c.opts.MaxTokens).
		BaseURL(c.opts.BaseURL).
		HTTPClient(c.opts.HTTPClient).
		App(c.opts.AppURL, c.opts.AppTitle)
	if c.opts.Temperature != nil {
		b.Temperature(*c.opts.Temperature)
	}
	return b.APIKey(apiKey)
}
