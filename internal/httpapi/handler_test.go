package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

type stubLoader struct {
	mu    sync.Mutex
	icons map[string]string
	calls []string
}

func (s *stubLoader) Load(ctx context.Context, rawURL string) (string, bool) {
	s.mu.Lock()
	s.calls = append(s.calls, rawURL)
	s.mu.Unlock()
	icon, ok := s.icons[rawURL]
	return icon, ok
}

func newTestMux(ld IconLoader) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(ld, nil, 2).Register(mux)
	return mux
}

func TestIcon(t *testing.T) {
	ld := &stubLoader{icons: map[string]string{"https://go.dev/": "https://go.dev/favicon.ico"}}
	mux := newTestMux(ld)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantIcon   string
		wantGlyph  string
	}{
		{"Found", "https://go.dev/", http.StatusOK, "https://go.dev/favicon.ico", "g"},
		{"NotFound", "https://news.ycombinator.com/", http.StatusOK, "", "y"},
		{"Missing", "", http.StatusBadRequest, "", ""},
		{"Relative", "/just/a/path", http.StatusBadRequest, "", ""},
		{"WrongScheme", "file:///etc/passwd", http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/icon?url="+url.QueryEscape(tt.target), nil)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var got IconResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.URL != tt.target || got.IconURL != tt.wantIcon || got.Glyph != tt.wantGlyph {
				t.Errorf("response = %+v", got)
			}
		})
	}
}

func TestIcon_OmitsIconURLWhenMissing(t *testing.T) {
	mux := newTestMux(&stubLoader{})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/icon?url=https%3A%2F%2Fexample.com%2F", nil))

	if strings.Contains(rr.Body.String(), "iconUrl") {
		t.Errorf("body %s should not carry iconUrl", rr.Body.String())
	}
}

func TestIcon_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(&stubLoader{})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/icon?url=https://go.dev/", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestIcons_Batch(t *testing.T) {
	ld := &stubLoader{icons: map[string]string{
		"https://go.dev/":     "https://go.dev/favicon.ico",
		"https://pkg.go.dev/": "https://pkg.go.dev/static/icon.png",
	}}
	mux := newTestMux(ld)

	body := `{"urls":["https://go.dev/","https://example.org/","https://pkg.go.dev/"]}`
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/icons", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rr.Code, rr.Body.String())
	}
	var got batchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Icons) != 3 {
		t.Fatalf("got %d icons, want 3", len(got.Icons))
	}
	want := []IconResponse{
		{URL: "https://go.dev/", IconURL: "https://go.dev/favicon.ico", Glyph: "g"},
		{URL: "https://example.org/", Glyph: "e"},
		{URL: "https://pkg.go.dev/", IconURL: "https://pkg.go.dev/static/icon.png", Glyph: "g"},
	}
	for i := range want {
		if got.Icons[i] != want[i] {
			t.Errorf("icons[%d] = %+v, want %+v", i, got.Icons[i], want[i])
		}
	}
}

func TestIcons_Invalid(t *testing.T) {
	mux := newTestMux(&stubLoader{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"NotJSON", "urls=1", http.StatusBadRequest},
		{"BadURL", `{"urls":["https://go.dev/","ftp://x"]}`, http.StatusBadRequest},
		{"TooMany", `{"urls":[` + strings.TrimSuffix(strings.Repeat(`"https://a.example/",`, maxBatchURLs+1), ",") + `]}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/icons", strings.NewReader(tt.body)))
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestMux(&stubLoader{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}
