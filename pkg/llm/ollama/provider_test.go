package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthmate-be/pkg/llm"
)

func chatServer(t *testing.T, captured *ollamaChatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "ok"},
			Done:    true,
		})
	}))
}

func TestChatDefaultsTemperature(t *testing.T) {
	var captured ollamaChatRequest
	srv := chatServer(t, &captured)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
	reply, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)

	require.NotNil(t, captured.Options)
	assert.Equal(t, 0.7, captured.Options.Temperature)
}

func TestChatHonorsExplicitZeroTemperature(t *testing.T) {
	var captured ollamaChatRequest
	srv := chatServer(t, &captured)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}},
		llm.WithTemperature(0))
	require.NoError(t, err)

	require.NotNil(t, captured.Options)
	assert.Equal(t, 0.0, captured.Options.Temperature)
}

func TestChatMapsModelRoleToAssistant(t *testing.T) {
	var captured ollamaChatRequest
	srv := chatServer(t, &captured)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
	_, err := p.Chat(context.Background(), []llm.Message{
		{Role: "user", Content: "hi"},
		{Role: "model", Content: "hello"},
	})
	require.NoError(t, err)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "assistant", captured.Messages[1].Role)
}
