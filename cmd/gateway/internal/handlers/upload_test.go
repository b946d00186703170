package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/uploads"
)

type fakeUploader struct {
	doc uploads.UploadedDocument
	err error
}

func (f *fakeUploader) Upload(ctx context.Context, userID, filename, mimeType, contentB64 string) (uploads.UploadedDocument, error) {
	return f.doc, f.err
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, userID string) {
	f.calls++
}

func doUpload(t *testing.T, h *UploadHandler, authed bool, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if authed {
		req = authedRequest(http.MethodPost, "/api/v1/documents/upload", strings.NewReader(body))
	} else {
		req = httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, req)
	return rec
}

func TestUploadHandler_Success(t *testing.T) {
	uploader := &fakeUploader{doc: uploads.UploadedDocument{
		DocumentID: "doc-9",
		Filename:   "don.pdf",
		PublicURL:  "https://chat.example.com/api/v1/documents/doc-9",
	}}
	inv := &fakeInvalidator{}
	h := NewUploadHandler(uploader, inv, zap.NewNop())

	body := fmt.Sprintf(`{"filename":"don.pdf","mime_type":"application/pdf","content":%q}`,
		base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")))
	rec := doUpload(t, h, true, body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, inv.calls, "catalog snapshot must be invalidated")

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-9", resp.DocumentID)
}

func TestUploadHandler_ValidationError(t *testing.T) {
	uploader := &fakeUploader{err: uploads.ErrUnsupportedType}
	inv := &fakeInvalidator{}
	h := NewUploadHandler(uploader, inv, zap.NewNop())

	rec := doUpload(t, h, true, `{"filename":"a.exe","mime_type":"application/octet-stream","content":"QUFB"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, inv.calls)
}

func TestUploadHandler_BackendError(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("indexing failed")}
	h := NewUploadHandler(uploader, &fakeInvalidator{}, zap.NewNop())

	rec := doUpload(t, h, true, `{"filename":"a.pdf","mime_type":"application/pdf","content":"QUFB"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUploadHandler_Unauthenticated(t *testing.T) {
	h := NewUploadHandler(&fakeUploader{}, &fakeInvalidator{}, zap.NewNop())

	rec := doUpload(t, h, false, `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
