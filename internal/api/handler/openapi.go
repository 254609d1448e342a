package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/daap14/blueprints/internal/api/middleware"
	"github.com/daap14/blueprints/internal/api/response"
)

// OpenAPIHandler serves the YAML API description as JSON.
type OpenAPIHandler struct {
	rawYAML []byte

	once    sync.Once
	jsonDoc []byte
	etag    string
	convErr error
}

// NewOpenAPIHandler creates a handler that converts yamlDoc to JSON on first request.
func NewOpenAPIHandler(yamlDoc []byte) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlDoc}
}

func (h *OpenAPIHandler) convert() {
	h.jsonDoc, h.convErr = yaml.YAMLToJSON(h.rawYAML)
	if h.convErr == nil {
		sum := sha256.Sum256(h.jsonDoc)
		h.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	}
}

// ServeHTTP writes the cached JSON document. Requests whose If-None-Match
// matches the document's ETag get 304 Not Modified.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.convert)

	if h.convErr != nil {
		slog.Error("failed to convert OpenAPI document to JSON", "error", h.convErr)
		requestID := middleware.GetRequestID(r.Context())
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to convert OpenAPI document", requestID)
		return
	}

	w.Header().Set("ETag", h.etag)
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonDoc); err != nil {
		slog.Error("failed to write OpenAPI response", "error", err)
	}
}
