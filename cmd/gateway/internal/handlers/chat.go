package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/citations"
	"github.com/vantri-labs/ragchat/internal/llm"
	"github.com/vantri-labs/ragchat/internal/metrics"
	"github.com/vantri-labs/ragchat/internal/retrieval"
	"github.com/vantri-labs/ragchat/internal/sources"
)

const (
	// Placeholder shown when both the retrieval backend and the completion
	// gateway fail. The chat surface never shows a bare HTTP error.
	msgSearchUnavailable = "Xin lỗi, hệ thống đang gặp sự cố. Vui lòng thử lại sau ít phút."

	// Context handed to the completion gateway when retrieval failed, so the
	// model knows it is answering without documents.
	msgNoRetrievedContext = "Không tìm thấy tài liệu tham khảo nào do hệ thống tìm kiếm đang gián đoạn."
)

// Searcher runs retrieval queries.
type Searcher interface {
	Search(ctx context.Context, query string, filters map[string][]string) (*retrieval.SearchResponse, error)
}

// Completer generates an answer from retrieved context.
type Completer interface {
	Complete(ctx context.Context, question, contextText string, history []llm.Message) (string, error)
}

// ChatRequest is one user turn. Query is the wire name; message is accepted
// as an alias for older clients.
type ChatRequest struct {
	Query     string          `json:"query"`
	Message   string          `json:"message,omitempty"`
	History   []llm.Message   `json:"history,omitempty"`
	Filters   map[string]bool `json:"filters,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// SourceView is one entry in the collapsible sources summary.
type SourceView struct {
	Filename string `json:"filename"`
	Origin   string `json:"source"`
	URL      string `json:"url,omitempty"`
	Preview  string `json:"preview,omitempty"`
}

// ChatResponse is the assembled answer. Citations carries the backend's raw
// citation objects untouched; Segments is the gateway's own per-line binding
// of markers to sources.
type ChatResponse struct {
	RequestID string                `json:"request_id"`
	Answer    string                `json:"answer"`
	Segments  [][]citations.Segment `json:"segments"`
	Sources   []SourceView          `json:"sources"`
	Citations []interface{}         `json:"citations"`
	Context   string                `json:"context"`
	Fallback  bool                  `json:"fallback,omitempty"`
	Degraded  bool                  `json:"degraded,omitempty"`
}

// ChatHandler handles chat turns: search, answer, citation assembly.
type ChatHandler struct {
	searcher  Searcher
	completer Completer
	logger    *zap.Logger
}

func NewChatHandler(searcher Searcher, completer Completer, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{searcher: searcher, completer: completer, logger: logger}
}

// HandleChat handles POST /api/v1/chat.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ChatRequests.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		req.Query = req.Message
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		metrics.ChatRequests.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	resp := h.answer(r.Context(), req)

	metrics.ChatDuration.Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) answer(ctx context.Context, req ChatRequest) *ChatResponse {
	filters := retrieval.ComposeFilters(req.Filters)

	var (
		records     []sources.Record
		contextText string
		degraded    bool
	)

	searchResp, err := h.searcher.Search(ctx, req.Query, filters)
	if err != nil {
		// The completion gateway still gets a turn, with a placeholder
		// context standing in for the missing documents.
		h.logger.Error("Retrieval search failed",
			zap.String("request_id", req.RequestID),
			zap.Error(err))
		degraded = true
		contextText = msgNoRetrievedContext
		searchResp = &retrieval.SearchResponse{}
	} else {
		records = sources.NormalizeAll(searchResp.Results, h.logger)
		contextText = sources.ContextText(searchResp.Results)
	}

	answer := searchResp.GeneratedAnswer()
	fallback := false

	if answer == "" {
		fallback = true
		metrics.LLMFallbacks.Inc()

		answer, err = h.completer.Complete(ctx, req.Query, contextText, req.History)
		if err != nil {
			h.logger.Error("Completion fallback failed",
				zap.String("request_id", req.RequestID),
				zap.Error(err))
			answer = msgSearchUnavailable
			degraded = true
		}
	}

	status := "success"
	if degraded {
		status = "error"
	} else if fallback {
		status = "fallback"
	}
	metrics.ChatRequests.WithLabelValues(status).Inc()

	backendCitations := searchResp.BackendCitations()
	if backendCitations == nil {
		backendCitations = []interface{}{}
	}

	return &ChatResponse{
		RequestID: req.RequestID,
		Answer:    answer,
		Segments:  citations.Assemble(answer, records),
		Sources:   sourceViews(records),
		Citations: backendCitations,
		Context:   contextText,
		Fallback:  fallback,
		Degraded:  degraded,
	}
}

func sourceViews(records []sources.Record) []SourceView {
	display := sources.DisplayList(records)
	views := make([]SourceView, 0, len(display))
	for _, rec := range display {
		view := SourceView{
			Filename: rec.Filename,
			Origin:   rec.Origin,
			URL:      rec.ResolvedURL(),
		}
		if preview, ok := sources.Preview(rec.Content); ok {
			view.Preview = preview
		}
		views = append(views, view)
	}
	return views
}
