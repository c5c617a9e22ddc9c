// Package httpapi exposes icon lookups to the new-tab page over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"bookie/internal/bookmarks"
	"bookie/internal/logging"
	"bookie/internal/resolver"
)

const maxBatchURLs = 500

type IconLoader interface {
	Load(ctx context.Context, rawURL string) (string, bool)
}

// IconResponse describes the icon for one bookmark. IconURL is omitted when
// no icon was found; Glyph is always set so the page can draw a fallback.
type IconResponse struct {
	URL     string `json:"url"`
	IconURL string `json:"iconUrl,omitempty"`
	Glyph   string `json:"glyph"`
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

type batchResponse struct {
	Icons []IconResponse `json:"icons"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	loader      IconLoader
	logger      logging.Logger
	concurrency int
}

func NewHandler(ld IconLoader, logger logging.Logger, concurrency int) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Handler{loader: ld, logger: logger, concurrency: concurrency}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/icon", h.icon)
	mux.HandleFunc("POST /api/icons", h.icons)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
}

func (h *Handler) icon(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if _, err := resolver.ParseTarget(raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url must be an absolute http(s) URL"})
		return
	}

	writeJSON(w, http.StatusOK, h.lookup(r.Context(), raw))
}

func (h *Handler) icons(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.URLs) > maxBatchURLs {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "too many urls"})
		return
	}
	for _, raw := range req.URLs {
		if _, err := resolver.ParseTarget(raw); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid url: " + raw})
			return
		}
	}

	out := make([]IconResponse, len(req.URLs))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(h.concurrency)
	for i, raw := range req.URLs {
		g.Go(func() error {
			res := h.lookup(ctx, raw)
			mu.Lock()
			out[i] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, batchResponse{Icons: out})
}

func (h *Handler) lookup(ctx context.Context, raw string) IconResponse {
	res := IconResponse{URL: raw, Glyph: bookmarks.Glyph(raw)}
	if iconURL, ok := h.loader.Load(ctx, raw); ok {
		res.IconURL = iconURL
	}
	return res
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
