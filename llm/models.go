// Package llm provides shared data models for LLM providers.
package llm

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// LLMResponse represents a response from an LLM provider.
type LLMResponse struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// ResponseFormatType defines the type of response format.
type ResponseFormatType string

// ResponseFormatJSONObject constrains output to a single JSON object.
const ResponseFormatJSONObject ResponseFormatType = "json_object"

// ResponseFormat specifies how the LLM should format its response.
type ResponseFormat struct {
	Type ResponseFormatType `json:"type"`
}

// NewJSONObjectFormat creates a JSON object response format.
func NewJSONObjectFormat() *ResponseFormat {
	return &ResponseFormat{Type: ResponseFormatJSONObject}
}

// wantsJSON reports whether format asks for a single JSON object.
func wantsJSON(format *ResponseFormat) bool {
	return format != nil && format.Type == ResponseFormatJSONObject
}

// ModelInfo describes a selectable model.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultModels is the model catalog offered to users. IDs are OpenRouter
// model identifiers; the first entry is the default.
var DefaultModels = []ModelInfo{
	{ID: ModelOpenRouterGeminiFlash2, Name: "Gemini 2.0 Flash (recommended)"},
	{ID: ModelOpenRouterGeminiPro15, Name: "Gemini Pro 1.5"},
	{ID: ModelOpenRouterClaude35Sonnet, Name: "Claude 3.5 Sonnet"},
	{ID: ModelOpenRouterGPT4o, Name: "GPT-4o"},
}
