package providers

import "context"

// Usage is the token accounting reported by the API, when present.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is a successful chat-completion response.
type Completion struct {
	ID           string `json:"id,omitempty"`
	Model        string `json:"model,omitempty"`
	Text         string `json:"-"`
	FinishReason string `json:"finishReason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Submitter sends one prompt as the sole user message and returns the
// completion or a classified error.
type Submitter interface {
	Submit(ctx context.Context, prompt, apiKey, model string) (Completion, error)
}
