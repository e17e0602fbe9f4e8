// Package openai provides a Completer for OpenAI-compatible Chat Completions
// endpoints, backed by the official openai-go SDK. Gemini exposes such an
// endpoint under DefaultGeminiBaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/germanamz/physbot/pkg/chats/chat"
	"github.com/germanamz/physbot/pkg/chats/content"
	"github.com/germanamz/physbot/pkg/chats/message"
	"github.com/germanamz/physbot/pkg/chats/role"
	"github.com/germanamz/physbot/pkg/modeladapter"
	"github.com/germanamz/physbot/pkg/modeladapter/usage"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1/"
	// DefaultGeminiBaseURL is Gemini's OpenAI-compatible API root.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

// ErrNoChoices is returned when the API answers without any choice.
var ErrNoChoices = errors.New("openai: empty choices in response")

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer over the Chat Completions API.
// The embedded ModelAdapter carries the model settings, extra headers and
// usage tracker; base URL, auth and transport belong to the SDK client.
type Adapter struct {
	modeladapter.ModelAdapter

	endpoint string
	client   sdk.Client
}

// New creates an Adapter for the given API root (trailing slash included),
// credential and model. The SDK's automatic retries are disabled so each
// Complete makes exactly one request. A nil httpClient uses the SDK default.
func New(baseURL, apiKey, model string, httpClient *http.Client) *Adapter {
	a := &Adapter{endpoint: baseURL}
	a.Name = model

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	a.client = sdk.NewClient(opts...)

	return a
}

// Endpoint returns the API root the SDK client targets. Empty means the SDK
// default.
func (a *Adapter) Endpoint() string { return a.endpoint }

// Complete sends the chat as a single Chat Completions request and returns
// the first choice.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat) (message.Message, error) {
	resp, err := a.client.Chat.Completions.New(ctx, a.buildParams(c), a.requestOptions()...)
	if err != nil {
		return message.Message{}, fmt.Errorf("openai: %w", err)
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	})

	if len(resp.Choices) == 0 {
		return message.Message{}, ErrNoChoices
	}

	var parts []content.Part
	if text := resp.Choices[0].Message.Content; text != "" {
		parts = append(parts, content.Text{Text: text})
	}

	return message.New(a.Name, role.Assistant, parts...), nil
}

// Unauthorized reports whether err is an API rejection of the credential.
func Unauthorized(err error) bool {
	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// requestOptions turns the adapter's extra headers into SDK request options.
func (a *Adapter) requestOptions() []option.RequestOption {
	opts := make([]option.RequestOption, 0, len(a.Headers))
	for k, v := range a.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	return opts
}

func (a *Adapter) buildParams(c *chat.Chat) sdk.ChatCompletionNewParams {
	params := sdk.ChatCompletionNewParams{
		Model: a.Name,
	}

	if a.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(a.MaxTokens))
	}
	if a.Temperature != 0 {
		params.Temperature = sdk.Float(a.Temperature)
	}

	for _, m := range c.Messages() {
		text := m.TextContent()
		switch m.Role {
		case role.System:
			params.Messages = append(params.Messages, sdk.SystemMessage(text))
		case role.User:
			params.Messages = append(params.Messages, sdk.UserMessage(text))
		case role.Assistant:
			params.Messages = append(params.Messages, sdk.AssistantMessage(text))
		}
	}

	return params
}
