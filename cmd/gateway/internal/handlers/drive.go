package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/cmd/gateway/internal/middleware"
	"github.com/vantri-labs/ragchat/internal/drive"
	"github.com/vantri-labs/ragchat/internal/metrics"
)

// DriveConnector manages a user's storage provider link.
type DriveConnector interface {
	Connected(ctx context.Context, userID string) bool
	Connect(ctx context.Context, userID, code string) error
	Disconnect(ctx context.Context, userID string) error
}

// DriveHandler handles the storage provider OAuth flow.
type DriveHandler struct {
	oauth       drive.OAuthConfig
	connector   DriveConnector
	invalidator CatalogInvalidator
	logger      *zap.Logger
}

func NewDriveHandler(oauth drive.OAuthConfig, connector DriveConnector, invalidator CatalogInvalidator, logger *zap.Logger) *DriveHandler {
	return &DriveHandler{oauth: oauth, connector: connector, invalidator: invalidator, logger: logger}
}

// HandleAuthURL handles GET /api/v1/drive/auth-url.
func (h *DriveHandler) HandleAuthURL(w http.ResponseWriter, r *http.Request) {
	if !h.oauth.Enabled() {
		writeError(w, http.StatusNotImplemented, "Storage provider is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"auth_url": h.oauth.AuthURL(uuid.New().String()),
	})
}

// HandleStatus handles GET /api/v1/drive/status.
func (h *DriveHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"connected": h.connector.Connected(r.Context(), userCtx.UserID.String()),
	})
}

// HandleConnect handles POST /api/v1/drive/oauth: the browser relays the
// authorization code it received from the callback page.
func (h *DriveHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Authorization code is required")
		return
	}

	if err := h.connector.Connect(r.Context(), userCtx.UserID.String(), req.Code); err != nil {
		h.logger.Error("Drive connection failed",
			zap.String("user_id", userCtx.UserID.String()),
			zap.Error(err))
		metrics.DriveRequests.WithLabelValues("connect", "error").Inc()
		writeError(w, http.StatusBadGateway, "Could not connect storage provider")
		return
	}

	metrics.DriveRequests.WithLabelValues("connect", "success").Inc()

	// Connecting changes the catalog's source set.
	if h.invalidator != nil {
		h.invalidator.Invalidate(r.Context(), userCtx.UserID.String())
	}

	writeJSON(w, http.StatusOK, map[string]bool{"connected": true})
}

// HandleDisconnect handles DELETE /api/v1/drive/oauth.
func (h *DriveHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.connector.Disconnect(r.Context(), userCtx.UserID.String()); err != nil {
		h.logger.Error("Drive disconnect failed",
			zap.String("user_id", userCtx.UserID.String()),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not disconnect storage provider")
		return
	}

	if h.invalidator != nil {
		h.invalidator.Invalidate(r.Context(), userCtx.UserID.String())
	}

	writeJSON(w, http.StatusOK, map[string]bool{"connected": false})
}

// callbackPage relays the OAuth result to the opener window and closes
// itself. The auth flow runs in a popup; postMessage is how the code gets
// back to the app without a full page reload.
var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><title>Kết nối Google Drive</title></head>
<body>
<p>Đang hoàn tất kết nối...</p>
<script>
(function() {
  var payload = {{.}};
  if (window.opener) {
    window.opener.postMessage(payload, "*");
    window.close();
  } else {
    document.body.innerText = payload.type === "OAUTH_CODE"
      ? "Kết nối thành công. Bạn có thể đóng cửa sổ này."
      : "Kết nối thất bại: " + (payload.error || "unknown");
  }
})();
</script>
</body>
</html>`))

type callbackPayload struct {
	Type  string `json:"type"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// HandleCallback handles GET /oauth/callback. Unauthenticated: Google
// redirects the popup here, and the page only relays the code to the opener.
func (h *DriveHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	payload := callbackPayload{Type: "OAUTH_CODE", Code: q.Get("code")}
	if errParam := q.Get("error"); errParam != "" {
		payload = callbackPayload{Type: "OAUTH_ERROR", Error: errParam}
	} else if payload.Code == "" {
		payload = callbackPayload{Type: "OAUTH_ERROR", Error: "missing authorization code"}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := callbackPage.Execute(w, payload); err != nil {
		h.logger.Error("Callback page render failed", zap.Error(err))
	}
}
