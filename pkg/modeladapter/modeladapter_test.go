package modeladapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/germanamz/physbot/pkg/chats/chat"
	"github.com/germanamz/physbot/pkg/chats/message"
	"github.com/germanamz/physbot/pkg/chats/role"
	"github.com/germanamz/physbot/pkg/modeladapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks.
var (
	_ modeladapter.Completer     = (*modeladapter.ModelAdapter)(nil)
	_ modeladapter.UsageReporter = (*modeladapter.ModelAdapter)(nil)
)

func TestModelAdapter_StubComplete(t *testing.T) {
	var a modeladapter.ModelAdapter

	_, err := a.Complete(context.Background(), chat.New(message.NewText("", role.User, "hi")))
	assert.EqualError(t, err, "adapter: Complete not implemented")
}

func TestModelAdapter_Accessors(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)
	a.Name = "gemini-2.0-flash"

	assert.Nil(t, a.Client)
	assert.Equal(t, "gemini-2.0-flash", a.ModelName())
	assert.Equal(t, 0, a.UsageTracker().Count())
}

func TestNewRequest_Auth(t *testing.T) {
	tests := []struct {
		name       string
		auth       modeladapter.Auth
		header     string
		wantHeader string
	}{
		{"bearer default", modeladapter.Auth{Key: "sk-test"}, "Authorization", "Bearer sk-test"},
		{"custom header", modeladapter.Auth{Key: "sk-test", Header: "x-goog-api-key"}, "x-goog-api-key", "sk-test"},
		{"custom header with scheme", modeladapter.Auth{Key: "sk-test", Header: "x-api-key", Scheme: "Token"}, "x-api-key", "Token sk-test"},
		{"no key", modeladapter.Auth{}, "Authorization", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := modeladapter.New("https://api.example.com", tt.auth, nil)

			req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/models", nil)
			require.NoError(t, err)
			assert.Equal(t, "https://api.example.com/v1/models", req.URL.String())
			assert.Equal(t, tt.wantHeader, req.Header.Get(tt.header))
		})
	}
}

func TestNewRequest_ExtraHeaders(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)
	a.Headers = map[string]string{"x-custom": "value"}

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/models", nil)
	require.NoError(t, err)
	assert.Equal(t, "value", req.Header.Get("x-custom"))
}

func TestPostJSON_Success(t *testing.T) {
	type reqBody struct {
		Model string `json:"model"`
	}
	type respBody struct {
		ID string `json:"id"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got reqBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "gemini-test", got.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respBody{ID: "resp-1"})
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{Key: "sk-test"}, srv.Client())

	var dest respBody
	err := a.PostJSON(context.Background(), "/v1/generate", reqBody{Model: "gemini-test"}, &dest)
	require.NoError(t, err)
	assert.Equal(t, "resp-1", dest.ID)
}

func TestPostJSON_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	err := a.PostJSON(context.Background(), "/v1/generate", map[string]string{}, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unexpected status 401")

	var se *modeladapter.StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Unauthorized())
	assert.Contains(t, se.Body, "invalid api key")
}

func TestPostJSON_ServerErrorBodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 10_000)))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	err := a.PostJSON(context.Background(), "/v1/generate", map[string]string{}, nil)

	var se *modeladapter.StatusError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.Unauthorized())
	assert.Len(t, se.Body, 4096)
}

func TestPostJSON_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	var dest map[string]any
	err := a.PostJSON(context.Background(), "/v1/generate", map[string]string{}, &dest)
	assert.ErrorContains(t, err, "decode response")
}

func TestPostJSON_MarshalError(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)

	err := a.PostJSON(context.Background(), "/v1/generate", make(chan int), nil)
	assert.ErrorContains(t, err, "marshal payload")
}

func TestPostJSON_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	a := modeladapter.New(url, modeladapter.Auth{}, nil)

	err := a.PostJSON(context.Background(), "/v1/generate", map[string]string{}, nil)
	assert.ErrorContains(t, err, "do request")
}
