package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"littlesteps-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Most newborns sleep 14-17 hours."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30}
		}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL+"/v1", "")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be kind"},
		{Role: llm.RoleUser, Content: "How long do newborns sleep?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Most newborns sleep 14-17 hours.", out.Content)
	require.NotNil(t, out.Usage)
	assert.Equal(t, 30, out.Usage.TotalTokens)
	assert.Equal(t, DefaultModel, got["model"])
	assert.Len(t, got["messages"], 2)
}

func TestChatNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "choices": [], "usage": {}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("k", server.URL+"/v1", "m")
	_, err := p.Generate(context.Background(), "hi")
	assert.Error(t, err)
}

func TestChatUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("k", server.URL+"/v1", "m")
	_, err := p.Generate(context.Background(), "hi")
	assert.Error(t, err)
}
