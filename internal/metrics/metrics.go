package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Chat metrics
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_chat_requests_total",
			Help: "Total number of chat requests",
		},
		[]string{"status"},
	)

	ChatDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ragchat_chat_duration_seconds",
			Help:    "End-to-end chat turn duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LLMFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragchat_llm_fallbacks_total",
			Help: "Chat turns answered by the completion gateway because the retrieval backend returned no answer",
		},
	)

	// Retrieval backend metrics
	RetrievalSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_retrieval_searches_total",
			Help: "Total search calls against the retrieval backend",
		},
		[]string{"status"},
	)

	RetrievalSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ragchat_retrieval_search_duration_seconds",
			Help:    "Retrieval backend search latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Catalog metrics
	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragchat_catalog_cache_hits_total",
			Help: "Document catalog reads served from cache",
		},
	)

	CatalogCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragchat_catalog_cache_misses_total",
			Help: "Document catalog reads that required a refetch",
		},
	)

	CatalogDocuments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ragchat_catalog_documents",
			Help: "Documents in the most recently merged catalog",
		},
	)

	// Upload metrics
	DocumentsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_documents_uploaded_total",
			Help: "Total document upload attempts",
		},
		[]string{"status"},
	)

	// Citation metrics
	CitationsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_citations_resolved_total",
			Help: "Citation markers bound to sources, by clickability",
		},
		[]string{"clickable"},
	)

	// Storage provider metrics
	DriveRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_drive_requests_total",
			Help: "Storage provider calls by action and status",
		},
		[]string{"action", "status"},
	)
)
