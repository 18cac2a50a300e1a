package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/losthumanity/TikDownloader/internal/media"
)

func TestTikDownloaderResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
			t.Errorf("X-Requested-With = %q, want XMLHttpRequest", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("q"); got == "" {
			t.Error("form q is empty")
		}
		payload, _ := json.Marshal(map[string]string{"data": resultFragment})
		w.Write(payload)
	}))
	defer srv.Close()

	a := &TikDownloader{base: srv.URL, client: srv.Client()}
	got, err := a.Resolve(context.Background(), "https://www.tiktok.com/@u/video/1", media.QualityHigh)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got.URL != "https://dl.example.com/hd.mp4" {
		t.Errorf("URL = %q, want HD link from markup", got.URL)
	}
	if got.Source != "tikdownloader" {
		t.Errorf("Source = %q, want tikdownloader", got.Source)
	}
}

func TestTikDownloaderResolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty data field", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":""}`)
		}},
		{"markup without links", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":"<p>not found</p>"}`)
		}},
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a := &TikDownloader{base: srv.URL, client: srv.Client()}
			if _, err := a.Resolve(context.Background(), "https://www.tiktok.com/@u/video/1", media.QualityHigh); err == nil {
				t.Error("expected error, got success")
			}
		})
	}
}
