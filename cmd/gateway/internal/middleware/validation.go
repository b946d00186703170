package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies. Uploads are base64-encoded JSON, so the
// cap sits above the raw upload limit with encoding overhead.
const MaxBodyBytes = 16 << 20

// ValidationMiddleware performs basic input validation for common params
type ValidationMiddleware struct {
	logger *zap.Logger
}

func NewValidationMiddleware(logger *zap.Logger) *ValidationMiddleware {
	return &ValidationMiddleware{logger: logger}
}

func (vm *ValidationMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		method := r.Method

		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

		// Validate by route. Keep this minimal and fast.
		switch {
		case method == http.MethodPost && strings.HasPrefix(path, "/api/v1/"):
			if !vm.validateJSONContentType(w, r) {
				return
			}

		case method == http.MethodGet && path == "/api/v1/documents":
			if !vm.validateOptionalSource(w, r) {
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// --- helpers ---

func (vm *ValidationMiddleware) validateJSONContentType(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || strings.HasPrefix(ct, "application/json") {
		return true
	}
	vm.sendBadRequest(w, "Content-Type must be application/json")
	return false
}

func (vm *ValidationMiddleware) validateOptionalSource(w http.ResponseWriter, r *http.Request) bool {
	s := r.URL.Query().Get("source")
	if s == "" {
		return true
	}
	if len(s) > 128 {
		vm.sendBadRequest(w, "Invalid source parameter")
		return false
	}
	return true
}

func (vm *ValidationMiddleware) sendBadRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
