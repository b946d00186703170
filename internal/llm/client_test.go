package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL: srv.URL + "/v1",
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func completionOK(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}
}

func TestClient_Complete(t *testing.T) {
	var got chatRequest
	var gotAuth string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		completionOK("Theo Điều 600 Bộ luật Dân sự 2015.")(w, r)
	})

	answer, err := client.Complete(context.Background(),
		"Ai chịu trách nhiệm bồi thường?",
		"Điều 600. Người của pháp nhân gây thiệt hại...",
		[]Message{{Role: "user", Content: "xin chào"}, {Role: "assistant", Content: "chào bạn"}})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "Theo Điều 600 Bộ luật Dân sự 2015.", answer)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, SystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.True(t, strings.Contains(got.Messages[3].Content, "Điều 600"), "retrieved context belongs in the final user turn")
	assert.True(t, strings.Contains(got.Messages[3].Content, "Ai chịu trách nhiệm bồi thường?"))
}

func TestClient_CompleteWithoutContext(t *testing.T) {
	var got chatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		completionOK("ok")(w, r)
	})

	_, err := client.Complete(context.Background(), "thủ tục ly hôn?", "", nil)
	require.NoError(t, err)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "thủ tục ly hôn?", got.Messages[1].Content)
}

func TestClient_RateLimitedReturnsPlaceholder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	answer, err := client.Complete(context.Background(), "câu hỏi", "", nil)
	require.NoError(t, err)
	assert.Equal(t, MsgBusy, answer)
}

func TestClient_QuotaExhaustedReturnsPlaceholder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	answer, err := client.Complete(context.Background(), "câu hỏi", "", nil)
	require.NoError(t, err)
	assert.Equal(t, MsgQuota, answer)
}

func TestClient_EmptyCompletionIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := client.Complete(context.Background(), "câu hỏi", "", nil)
	require.Error(t, err)
}

func TestClient_GatewayErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "model not found", "type": "invalid_request_error"},
		})
	})

	_, err := client.Complete(context.Background(), "câu hỏi", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}
