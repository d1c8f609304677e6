package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 5 * time.Minute

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 10 * 1024 * 1024
)

// Options configures an OpenRouter client.
type Options struct {
	// BaseURL is the API root; "/chat/completions" is appended.
	BaseURL string
	// Referer and Title are sent as OpenRouter attribution headers when set.
	Referer string
	Title   string
	Timeout time.Duration
	// Temperature is omitted from the request when nil.
	Temperature *float64
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// OpenRouter submits prompts to an OpenAI-compatible chat-completion endpoint.
// It holds no per-request state and is safe for concurrent use.
type OpenRouter struct {
	endpoint    string
	referer     string
	title       string
	temperature *float64
	client      *http.Client
	log         *zap.Logger
}

// NewOpenRouter creates a client from opts, filling in defaults.
func NewOpenRouter(opts Options) *OpenRouter {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenRouter{
		endpoint:    base + "/chat/completions",
		referer:     opts.Referer,
		title:       opts.Title,
		temperature: opts.Temperature,
		client:      client,
		log:         log.Named("openrouter"),
	}
}

// Submit posts prompt as the only user message. A blank apiKey fails with
// *AuthError before any request is made.
func (o *OpenRouter) Submit(ctx context.Context, prompt, apiKey, model string) (Completion, error) {
	if strings.TrimSpace(apiKey) == "" {
		return Completion{}, &AuthError{}
	}

	body := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: o.temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Completion{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	if o.referer != "" {
		httpReq.Header.Set("HTTP-Referer", o.referer)
	}
	if o.title != "" {
		httpReq.Header.Set("X-Title", o.title)
	}

	start := time.Now()
	o.log.Debug("submitting prompt",
		zap.String("model", model),
		zap.Int("prompt_bytes", len(prompt)))

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return Completion{}, o.fail(model, start, &TransportError{Op: "send", Err: err})
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return Completion{}, o.fail(model, start, &TransportError{Op: "read", Err: err})
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		var env chatResponse
		_ = json.Unmarshal(respBody, &env)
		detail := ""
		if env.Error != nil {
			detail = env.Error.Message
		}
		return Completion{}, o.fail(model, start, classifyStatus(httpResp.StatusCode, string(respBody), detail))
	}

	comp, err := parseCompletion(respBody)
	if err != nil {
		return Completion{}, o.fail(model, start, err)
	}

	o.log.Info("completion received",
		zap.String("model", comp.Model),
		zap.String("finish_reason", comp.FinishReason),
		zap.Int("total_tokens", comp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)))
	return comp, nil
}

func (o *OpenRouter) fail(model string, start time.Time, err error) error {
	o.log.Warn("submission failed",
		zap.String("model", model),
		zap.String("kind", Kind(err)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return err
}

// parseCompletion decodes a 2xx body. Gateways sometimes report upstream
// failures inside a 200 response via an "error" object.
func parseCompletion(body []byte) (Completion, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Completion{}, &ProtocolError{Reason: "body is not valid JSON: " + err.Error(), Body: string(body)}
	}
	if resp.Error != nil {
		status := resp.Error.status()
		if status == 0 {
			return Completion{}, &UnknownAPIError{Status: http.StatusOK, Body: string(body)}
		}
		return Completion{}, classifyStatus(status, string(body), resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, &ProtocolError{Reason: "no choices in response", Body: string(body)}
	}
	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return Completion{}, &ProtocolError{Reason: "empty completion content", Body: string(body)}
	}
	return Completion{
		ID:           resp.ID,
		Model:        resp.Model,
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        resp.Usage,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type apiError struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
}

// status returns the error code as an HTTP status, or 0 when the code is
// absent or not numeric.
func (e *apiError) status() int {
	raw := strings.Trim(string(e.Code), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 100 || n > 599 {
		return 0
	}
	return n
}
