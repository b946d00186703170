package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/citations"
	"github.com/vantri-labs/ragchat/internal/llm"
	"github.com/vantri-labs/ragchat/internal/retrieval"
	"github.com/vantri-labs/ragchat/internal/sources"
)

type fakeSearcher struct {
	resp       *retrieval.SearchResponse
	err        error
	gotQuery   string
	gotFilters map[string][]string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, filters map[string][]string) (*retrieval.SearchResponse, error) {
	f.gotQuery = query
	f.gotFilters = filters
	return f.resp, f.err
}

type fakeCompleter struct {
	answer     string
	err        error
	calls      int
	gotContext string
}

func (f *fakeCompleter) Complete(ctx context.Context, question, contextText string, history []llm.Message) (string, error) {
	f.calls++
	f.gotContext = contextText
	return f.answer, f.err
}

func doChat(t *testing.T, h *ChatHandler, body string) (*httptest.ResponseRecorder, ChatResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)

	var resp ChatResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestChatHandler_AnswerWithCitations(t *testing.T) {
	searcher := &fakeSearcher{resp: &retrieval.SearchResponse{
		Completion: "Mức bồi thường theo quy định [1].",
		Results: []sources.RawResult{
			{"filename": "bo-luat-dan-su.pdf", "source": "Legal Corpus", "url": "https://example.com/blds.pdf", "content": "Điều 600..."},
		},
	}}
	completer := &fakeCompleter{}
	h := NewChatHandler(searcher, completer, zap.NewNop())

	rec, resp := doChat(t, h, `{"query":"bồi thường?","filters":{"origin:Legal Corpus":true}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bồi thường?", searcher.gotQuery)
	assert.Equal(t, map[string][]string{"origin": {"Legal Corpus"}}, searcher.gotFilters)
	assert.Zero(t, completer.calls, "backend answered; no fallback")

	assert.False(t, resp.Fallback)
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "bo-luat-dan-su.pdf", resp.Sources[0].Filename)

	// The citation marker resolves to a clickable segment.
	var clickable *citations.Segment
	for _, line := range resp.Segments {
		for i := range line {
			if line[i].Kind == citations.KindCitation && line[i].URL != "" {
				clickable = &line[i]
			}
		}
	}
	require.NotNil(t, clickable)
	assert.Equal(t, 1, clickable.Index)
	assert.Equal(t, "https://example.com/blds.pdf", clickable.URL)

	assert.Contains(t, resp.Context, "Điều 600")
}

func TestChatHandler_BackendCitationsPassedThrough(t *testing.T) {
	searcher := &fakeSearcher{resp: &retrieval.SearchResponse{
		Completion: "ok",
		Citations:  []interface{}{map[string]interface{}{"id": "c1"}},
	}}
	h := NewChatHandler(searcher, &fakeCompleter{}, zap.NewNop())

	_, resp := doChat(t, h, `{"query":"câu hỏi"}`)

	require.Len(t, resp.Citations, 1)
	got, ok := resp.Citations[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "c1", got["id"])
}

func TestChatHandler_LegacyMessageFieldAccepted(t *testing.T) {
	searcher := &fakeSearcher{resp: &retrieval.SearchResponse{Completion: "ok"}}
	h := NewChatHandler(searcher, &fakeCompleter{}, zap.NewNop())

	rec, _ := doChat(t, h, `{"message":"bồi thường?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bồi thường?", searcher.gotQuery)
}

func TestChatHandler_FallbackWhenNoGeneratedAnswer(t *testing.T) {
	searcher := &fakeSearcher{resp: &retrieval.SearchResponse{
		Results: []sources.RawResult{{"filename": "a.pdf", "content": "nội dung"}},
	}}
	completer := &fakeCompleter{answer: "Câu trả lời dự phòng."}
	h := NewChatHandler(searcher, completer, zap.NewNop())

	rec, resp := doChat(t, h, `{"query":"câu hỏi"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, completer.calls)
	assert.True(t, resp.Fallback)
	assert.False(t, resp.Degraded)
	assert.Equal(t, "Câu trả lời dự phòng.", resp.Answer)
}

func TestChatHandler_SearchFailureStillCompletes(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("backend unreachable")}
	completer := &fakeCompleter{answer: "Trả lời không có tài liệu."}
	h := NewChatHandler(searcher, completer, zap.NewNop())

	rec, resp := doChat(t, h, `{"query":"câu hỏi"}`)

	assert.Equal(t, http.StatusOK, rec.Code, "chat turns degrade, never 5xx")
	assert.True(t, resp.Degraded)
	assert.True(t, resp.Fallback)
	assert.Equal(t, "Trả lời không có tài liệu.", resp.Answer)
	assert.Empty(t, resp.Sources)

	// The completion gateway gets a placeholder context, not an empty one.
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, msgNoRetrievedContext, completer.gotContext)
}

func TestChatHandler_BothUpstreamsFailing(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("backend unreachable")}
	completer := &fakeCompleter{err: errors.New("llm down")}
	h := NewChatHandler(searcher, completer, zap.NewNop())

	rec, resp := doChat(t, h, `{"query":"câu hỏi"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Degraded)
	assert.Equal(t, msgSearchUnavailable, resp.Answer)
}

func TestChatHandler_CompleterFailureDegrades(t *testing.T) {
	searcher := &fakeSearcher{resp: &retrieval.SearchResponse{
		Results: []sources.RawResult{{"filename": "a.pdf", "content": "x"}},
	}}
	completer := &fakeCompleter{err: errors.New("llm down")}
	h := NewChatHandler(searcher, completer, zap.NewNop())

	_, resp := doChat(t, h, `{"query":"câu hỏi"}`)

	assert.True(t, resp.Fallback)
	assert.True(t, resp.Degraded)
	assert.Equal(t, msgSearchUnavailable, resp.Answer)
	// Sources from the successful search still render.
	assert.Len(t, resp.Sources, 1)
}

func TestChatHandler_RequestIDEchoed(t *testing.T) {
	searcher := &fakeSearcher{resp: &retrieval.SearchResponse{Completion: "ok"}}
	h := NewChatHandler(searcher, &fakeCompleter{}, zap.NewNop())

	_, resp := doChat(t, h, `{"query":"câu hỏi","request_id":"req-42"}`)
	assert.Equal(t, "req-42", resp.RequestID)
}

func TestChatHandler_BadRequests(t *testing.T) {
	h := NewChatHandler(&fakeSearcher{}, &fakeCompleter{}, zap.NewNop())

	rec, _ := doChat(t, h, `{"query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doChat(t, h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
