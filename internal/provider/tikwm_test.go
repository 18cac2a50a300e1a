package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/losthumanity/TikDownloader/internal/media"
)

func TestPickTikWMVariant(t *testing.T) {
	tests := []struct {
		name        string
		play        string
		hdplay      string
		tier        media.QualityTier
		wantURL     string
		wantQuality string
	}{
		{"high prefers hdplay", "/x.mp4", "https://cdn/y.mp4", media.QualityHigh, "https://cdn/y.mp4", "HD"},
		{"standard prefers play", "/x.mp4", "https://cdn/y.mp4", media.QualityStandard, "/x.mp4", "SD"},
		{"high falls back to play", "/x.mp4", "", media.QualityHigh, "/x.mp4", "SD"},
		{"standard falls back to hdplay", "", "https://cdn/y.mp4", media.QualityStandard, "https://cdn/y.mp4", "HD"},
		{"both absent", "", "", media.QualityHigh, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, quality := pickTikWMVariant(tt.play, tt.hdplay, tt.tier)
			if url != tt.wantURL || quality != tt.wantQuality {
				t.Errorf("pickTikWMVariant() = (%q, %q), want (%q, %q)", url, quality, tt.wantURL, tt.wantQuality)
			}
		})
	}
}

func TestTikWMResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("hd"); got != "1" {
			t.Errorf("form hd = %q, want 1", got)
		}
		fmt.Fprint(w, `{"code":0,"data":{"play":"/x.mp4","hdplay":"https://cdn/y.mp4","title":"clip","duration":14,"cover":"https://cdn/c.jpg","author":{"nickname":"someone"}}}`)
	}))
	defer srv.Close()

	a := &TikWM{base: srv.URL, client: srv.Client()}

	t.Run("high tier picks absolute hdplay", func(t *testing.T) {
		got, err := a.Resolve(context.Background(), "https://www.tiktok.com/@u/video/1", media.QualityHigh)
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if got.URL != "https://cdn/y.mp4" {
			t.Errorf("URL = %q, want hdplay value", got.URL)
		}
		if got.Quality != "HD" || got.Source != "tikwm" {
			t.Errorf("got quality=%q source=%q", got.Quality, got.Source)
		}
		if got.Author != "someone" || got.Duration != 14 {
			t.Errorf("metadata not carried: author=%q duration=%d", got.Author, got.Duration)
		}
	})

	t.Run("standard tier rewrites relative play", func(t *testing.T) {
		got, err := a.Resolve(context.Background(), "https://www.tiktok.com/@u/video/1", media.QualityStandard)
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if got.URL != srv.URL+"/x.mp4" {
			t.Errorf("URL = %q, want relative path rewritten against base", got.URL)
		}
		if got.Quality != "SD" {
			t.Errorf("Quality = %q, want SD", got.Quality)
		}
	})
}

func TestTikWMResolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"provider error code", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":-1,"msg":"video unavailable"}`)
		}},
		{"missing play fields", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":0,"data":{"title":"clip"}}`)
		}},
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed JSON", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>rate limited</html>`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a := &TikWM{base: srv.URL, client: srv.Client()}
			if _, err := a.Resolve(context.Background(), "https://www.tiktok.com/@u/video/1", media.QualityHigh); err == nil {
				t.Error("expected error, got success")
			}
		})
	}
}
