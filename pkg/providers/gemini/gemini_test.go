package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/physbot/pkg/chats/chat"
	"github.com/germanamz/physbot/pkg/chats/message"
	"github.com/germanamz/physbot/pkg/chats/role"
	"github.com/germanamz/physbot/pkg/modeladapter"
	"github.com/germanamz/physbot/pkg/providers/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *gemini.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return gemini.New(srv.URL, "test-key", "gemini-test")
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}

	return req
}

func physicsChat() *chat.Chat {
	return chat.New(
		message.NewText("tutor", role.System, "Only answer physics questions."),
		message.NewText("", role.User, "What is Newton's second law?"),
	)
}

func TestComplete_SimpleText(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		req := readBody(t, r)

		si, ok := req["systemInstruction"].(map[string]any)
		require.True(t, ok)
		siParts, _ := si["parts"].([]any)
		require.Len(t, siParts, 1)
		firstPart, _ := siParts[0].(map[string]any)
		assert.Equal(t, "Only answer physics questions.", firstPart["text"])

		contents, ok := req["contents"].([]any)
		require.True(t, ok)
		require.Len(t, contents, 1)
		user, _ := contents[0].(map[string]any)
		assert.Equal(t, "user", user["role"])

		writeJSON(t, w, map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]any{{"text": "F = ma."}},
					},
					"finishReason": "STOP",
				},
			},
			"usageMetadata": map[string]any{
				"promptTokenCount":     12,
				"candidatesTokenCount": 4,
				"totalTokenCount":      16,
			},
		})
	})

	msg, err := adapter.Complete(context.Background(), physicsChat())
	require.NoError(t, err)
	assert.Equal(t, role.Assistant, msg.Role)
	assert.Equal(t, "F = ma.", msg.TextContent())

	last, ok := adapter.Usage.Last()
	require.True(t, ok)
	assert.Equal(t, 12, last.InputTokens)
	assert.Equal(t, 4, last.OutputTokens)
}

func TestComplete_GenerationConfig(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		gc, _ := req["generationConfig"].(map[string]any)
		assert.InDelta(t, 0.2, gc["temperature"], 1e-9)
		assert.InDelta(t, 256, gc["maxOutputTokens"], 1e-9)

		writeJSON(t, w, map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}},
			},
		})
	})
	adapter.Temperature = 0.2
	adapter.MaxTokens = 256

	_, err := adapter.Complete(context.Background(), physicsChat())
	require.NoError(t, err)
}

func TestComplete_OmitsUnsetGenerationConfig(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		gc, _ := req["generationConfig"].(map[string]any)
		assert.NotContains(t, gc, "temperature")
		assert.NotContains(t, gc, "maxOutputTokens")

		writeJSON(t, w, map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}},
			},
		})
	})

	_, err := adapter.Complete(context.Background(), physicsChat())
	require.NoError(t, err)
}

func TestComplete_MergesConsecutiveUserTurns(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		contents, _ := req["contents"].([]any)
		require.Len(t, contents, 1)
		parts, _ := contents[0].(map[string]any)["parts"].([]any)
		assert.Len(t, parts, 2)

		writeJSON(t, w, map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}},
			},
		})
	})

	c := chat.New(
		message.NewText("", role.User, "Explain projectile motion."),
		message.NewText("", role.User, "Use an example."),
	)

	_, err := adapter.Complete(context.Background(), c)
	require.NoError(t, err)
}

func TestComplete_EmptyCandidates(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"candidates": []any{}})
	})

	_, err := adapter.Complete(context.Background(), physicsChat())
	require.Error(t, err)
	assert.ErrorIs(t, err, gemini.ErrNoCandidates)
}

func TestComplete_BlockedPrompt(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"promptFeedback": map[string]any{"blockReason": "SAFETY"},
		})
	})

	_, err := adapter.Complete(context.Background(), physicsChat())
	require.ErrorIs(t, err, gemini.ErrNoCandidates)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestComplete_APIError(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	})

	_, err := adapter.Complete(context.Background(), physicsChat())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini:")

	var se *modeladapter.StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Unauthorized())
}
