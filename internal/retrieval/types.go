// Package retrieval is the HTTP client for the retrieval backend: hybrid
// search over the indexed corpus, optional answer generation, document
// ingestion, and the broad-search listing the catalog is built from.
package retrieval

import (
	"time"

	"github.com/vantri-labs/ragchat/internal/sources"
	"github.com/vantri-labs/ragchat/internal/util"
)

// Config holds retrieval backend connection settings.
type Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	CollectionID string        `mapstructure:"collection_id"`
	Limit        int           `mapstructure:"limit"`
	ListLimit    int           `mapstructure:"list_limit"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// SearchRequest is the backend's search payload. Strategy is always hybrid;
// the backend's other modes returned noticeably worse Vietnamese results.
type SearchRequest struct {
	Query             string              `json:"query"`
	Limit             int                 `json:"limit"`
	RetrievalStrategy string              `json:"retrieval_strategy"`
	Rerank            bool                `json:"rerank"`
	GenerateAnswer    bool                `json:"generate_answer"`
	Filters           map[string][]string `json:"filters,omitempty"`
}

// SearchResponse is the backend's search result. Completion is empty when
// answer generation was off or the backend declined to answer; callers fall
// back to the completion gateway in that case.
type SearchResponse struct {
	Results    []sources.RawResult `json:"results"`
	Completion string              `json:"completion"`
	Answer     string              `json:"answer"`
	Citations  []interface{}       `json:"citations"`
	References []interface{}       `json:"references"`
}

// GeneratedAnswer returns whichever answer field the backend populated.
// Older backend versions used "answer", current ones "completion".
func (r *SearchResponse) GeneratedAnswer() string {
	return util.FirstNonEmpty(r.Completion, r.Answer)
}

// BackendCitations returns whichever citation list the backend populated.
// These are passed through to the client untouched.
func (r *SearchResponse) BackendCitations() []interface{} {
	if len(r.Citations) > 0 {
		return r.Citations
	}
	return r.References
}

// UploadResult reports an accepted ingestion.
type UploadResult struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}
