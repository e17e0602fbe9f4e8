// Package gemini provides a Completer for the native Google Gemini
// generateContent API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/germanamz/physbot/pkg/chats/chat"
	"github.com/germanamz/physbot/pkg/chats/content"
	"github.com/germanamz/physbot/pkg/chats/message"
	"github.com/germanamz/physbot/pkg/chats/role"
	"github.com/germanamz/physbot/pkg/modeladapter"
	"github.com/germanamz/physbot/pkg/modeladapter/usage"
)

// DefaultBaseURL is the public Gemini API host.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// ErrNoCandidates is returned when the API answers without any candidate.
var ErrNoCandidates = errors.New("gemini: empty candidates in response")

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the Gemini API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the Gemini API.
// The baseURL should be DefaultBaseURL (no trailing slash) outside of tests.
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{
		Key:    apiKey,
		Header: "x-goog-api-key",
	}
	a.Name = model

	return a
}

// Complete sends the chat to generateContent and returns the first candidate.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat) (message.Message, error) {
	req := a.buildRequest(c)
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", a.Name)

	var resp apiResponse
	if err := a.PostJSON(ctx, path, req, &resp); err != nil {
		return message.Message{}, fmt.Errorf("gemini: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback.BlockReason != "" {
			return message.Message{}, fmt.Errorf("%w (blocked: %s)", ErrNoCandidates, resp.PromptFeedback.BlockReason)
		}
		return message.Message{}, ErrNoCandidates
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	})

	return a.parseCandidate(resp.Candidates[0]), nil
}

// --- request types ---

type apiRequest struct {
	Contents          []apiContent     `json:"contents"`
	SystemInstruction *apiContent      `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// --- response types ---

type apiResponse struct {
	Candidates     []apiCandidate    `json:"candidates"`
	PromptFeedback apiPromptFeedback `json:"promptFeedback"`
	UsageMetadata  apiUsageMeta      `json:"usageMetadata"`
}

type apiCandidate struct {
	Content      apiContent `json:"content"`
	FinishReason string     `json:"finishReason"`
}

type apiPromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type apiUsageMeta struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(c *chat.Chat) apiRequest {
	req := apiRequest{
		GenerationConfig: generationConfig{
			MaxOutputTokens: a.MaxTokens,
		},
	}

	if a.Temperature != 0 {
		t := a.Temperature
		req.GenerationConfig.Temperature = &t
	}

	if sp := c.SystemPrompt(); sp != "" {
		req.SystemInstruction = &apiContent{Parts: []apiPart{{Text: sp}}}
	}

	for _, m := range c.Messages() {
		if m.Role == role.System {
			continue
		}

		text := m.TextContent()
		if text == "" {
			continue
		}

		apiRole := mapRole(m.Role)

		// Gemini requires alternating roles; merge consecutive turns.
		if n := len(req.Contents); n > 0 && req.Contents[n-1].Role == apiRole {
			req.Contents[n-1].Parts = append(req.Contents[n-1].Parts, apiPart{Text: text})
			continue
		}

		req.Contents = append(req.Contents, apiContent{
			Role:  apiRole,
			Parts: []apiPart{{Text: text}},
		})
	}

	return req
}

func mapRole(r role.Role) string {
	if r == role.Assistant {
		return "model"
	}
	return "user"
}

func (a *Adapter) parseCandidate(cand apiCandidate) message.Message {
	var parts []content.Part

	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			parts = append(parts, content.Text{Text: p.Text})
		}
	}

	return message.New(a.Name, role.Assistant, parts...)
}
