package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/circuitbreaker"
	"github.com/vantri-labs/ragchat/internal/metrics"
	"github.com/vantri-labs/ragchat/internal/sources"
)

const (
	defaultLimit     = 20
	defaultListLimit = 100
	defaultTimeout   = 15 * time.Second

	// Broad query that matches the whole Vietnamese legal corpus; the
	// backend has no listing endpoint, so a wide search stands in.
	listQuery = "tài liệu"

	searchRetries  = 2
	retryBaseDelay = 200 * time.Millisecond
)

// Client talks to the retrieval backend over HTTP.
type Client struct {
	cfg   Config
	http  *http.Client
	httpw *circuitbreaker.HTTPWrapper
	log   *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Limit == 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.ListLimit == 0 {
		cfg.ListLimit = defaultListLimit
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	httpw := circuitbreaker.NewHTTPWrapper(httpClient, "retrieval", "retrieval", logger)
	return &Client{cfg: cfg, http: httpClient, httpw: httpw, log: logger}
}

// Search runs a hybrid search with reranking and answer generation. Filters
// narrow the corpus by metadata group; nil searches everything.
func (c *Client) Search(ctx context.Context, query string, filters map[string][]string) (*SearchResponse, error) {
	req := SearchRequest{
		Query:             query,
		Limit:             c.cfg.Limit,
		RetrievalStrategy: "hybrid",
		Rerank:            true,
		GenerateAnswer:    true,
		Filters:           filters,
	}
	return c.search(ctx, req)
}

// ListAll fetches a broad slice of the corpus for catalog building. Answer
// generation is off; only the result payloads matter here.
func (c *Client) ListAll(ctx context.Context) ([]sources.RawResult, error) {
	req := SearchRequest{
		Query:             listQuery,
		Limit:             c.cfg.ListLimit,
		RetrievalStrategy: "hybrid",
		Rerank:            false,
		GenerateAnswer:    false,
	}
	resp, err := c.search(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// search posts the request, retrying transient failures. Searches are
// idempotent reads so a bounded retry is safe.
func (c *Client) search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval: encode search request: %w", err)
	}
	url := fmt.Sprintf("%s/collections/%s/search", c.cfg.BaseURL, c.cfg.CollectionID)

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= searchRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay + time.Duration(rand.Int63n(int64(retryBaseDelay)))
			select {
			case <-ctx.Done():
				metrics.RetrievalSearches.WithLabelValues("error").Inc()
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			c.log.Debug("Retrying retrieval search",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
		}

		resp, err := c.post(ctx, url, body)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("retrieval: search returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			metrics.RetrievalSearches.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("retrieval: search returned status %d", resp.StatusCode)
		}

		var out SearchResponse
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil {
			metrics.RetrievalSearches.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("retrieval: decode search response: %w", err)
		}

		metrics.RetrievalSearches.WithLabelValues("success").Inc()
		metrics.RetrievalSearchDuration.Observe(time.Since(start).Seconds())
		return &out, nil
	}

	metrics.RetrievalSearches.WithLabelValues("error").Inc()
	return nil, fmt.Errorf("retrieval: search failed after %d attempts: %w", searchRetries+1, lastErr)
}

// UploadDocument sends a file to the backend for indexing. Uploads are not
// idempotent, so there is no retry; the caller surfaces the failure.
func (c *Client) UploadDocument(ctx context.Context, filename, mimeType string, content []byte) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("retrieval: build upload form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("retrieval: build upload form: %w", err)
	}
	if err := mw.WriteField("mime_type", mimeType); err != nil {
		return nil, fmt.Errorf("retrieval: build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("retrieval: build upload form: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/documents", c.cfg.BaseURL, c.cfg.CollectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("retrieval: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.httpw.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("retrieval: upload returned status %d", resp.StatusCode)
	}

	var out UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("retrieval: decode upload response: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	return c.httpw.Do(req)
}
