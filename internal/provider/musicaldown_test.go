package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/losthumanity/TikDownloader/internal/media"
)

func TestMusicalDownResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("quality"); got != "hd" {
			t.Errorf("form quality = %q, want hd", got)
		}
		fmt.Fprint(w, `{"success":true,"data":{"url":"https://cdn/md.mp4","title":"clip","author":"someone","thumbnail":"https://cdn/t.jpg"}}`)
	}))
	defer srv.Close()

	a := &MusicalDown{base: srv.URL, client: srv.Client()}
	got, err := a.Resolve(context.Background(), "https://www.tiktok.com/@u/video/1", media.QualityHigh)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got.URL != "https://cdn/md.mp4" || got.Quality != "HD" || got.Source != "musicaldown" {
		t.Errorf("got (%q, %q, %q)", got.URL, got.Quality, got.Source)
	}
}

func TestMusicalDownResolveFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unsuccessful envelope", `{"success":false}`},
		{"success without url", `{"success":true,"data":{"title":"clip"}}`},
		{"malformed JSON", `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			a := &MusicalDown{base: srv.URL, client: srv.Client()}
			if _, err := a.Resolve(context.Background(), "https://www.tiktok.com/@u/video/1", media.QualityHigh); err == nil {
				t.Error("expected error, got success")
			}
		})
	}
}
