package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/losthumanity/TikDownloader/internal/media"
	"github.com/losthumanity/TikDownloader/internal/provider"
)

// stubAdapter records invocations and returns a canned result or error.
type stubAdapter struct {
	name   string
	result *media.ResolvedMedia
	err    error
	calls  int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Resolve(_ context.Context, _ string, _ media.QualityTier) (*media.ResolvedMedia, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newStubResolver(adapters ...provider.Adapter) *Resolver {
	return &Resolver{chains: map[media.QualityTier][]provider.Adapter{
		media.QualityHigh:     adapters,
		media.QualityStandard: adapters,
	}}
}

const testURL = "https://www.tiktok.com/@user/video/7535094535538347282"

func TestResolveFirstSuccessWins(t *testing.T) {
	failing := &stubAdapter{name: "a", err: errors.New("provider down")}
	winner := &stubAdapter{name: "b", result: &media.ResolvedMedia{URL: "https://cdn/v.mp4", Source: "b"}}
	never := &stubAdapter{name: "c", result: &media.ResolvedMedia{URL: "https://cdn/other.mp4", Source: "c"}}

	r := newStubResolver(failing, winner, never)
	got, err := r.Resolve(context.Background(), testURL, media.QualityHigh)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got.Source != "b" {
		t.Errorf("Source = %q, want winning adapter b", got.Source)
	}
	if failing.calls != 1 || winner.calls != 1 {
		t.Errorf("calls = (%d, %d), want (1, 1)", failing.calls, winner.calls)
	}
	if never.calls != 0 {
		t.Errorf("adapter after the winner was invoked %d times, want 0", never.calls)
	}
}

func TestResolveExhausted(t *testing.T) {
	a := &stubAdapter{name: "a", err: errors.New("nope")}
	b := &stubAdapter{name: "b", err: errors.New("also nope")}

	r := newStubResolver(a, b)
	_, err := r.Resolve(context.Background(), testURL, media.QualityHigh)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("error = %v, want ErrExhausted", err)
	}
	if err.Error() == "" {
		t.Error("exhausted error has empty reason")
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = (%d, %d), want every adapter tried once", a.calls, b.calls)
	}
}

func TestResolveInvalidInput(t *testing.T) {
	adapter := &stubAdapter{name: "a", result: &media.ResolvedMedia{URL: "https://cdn/v.mp4"}}
	r := newStubResolver(adapter)

	tests := []struct {
		name string
		url  string
		want error
	}{
		{"non-tiktok domain", "https://example.com/watch?v=1", ErrInvalidURL},
		{"not a url", "hello", ErrInvalidURL},
		{"valid domain, no identifier", "https://www.tiktok.com/foryou", ErrNoIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.url, media.QualityHigh)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if adapter.calls != 0 {
		t.Errorf("adapter invoked %d times on invalid input, want 0", adapter.calls)
	}
}

func TestResolveShortLinkProceeds(t *testing.T) {
	// Short links carry no numeric ID, only a token; that must not block
	// resolution.
	winner := &stubAdapter{name: "a", result: &media.ResolvedMedia{URL: "https://cdn/v.mp4", Source: "a"}}
	r := newStubResolver(winner)

	got, err := r.Resolve(context.Background(), "https://vt.tiktok.com/ABC123", media.QualityHigh)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got.URL != "https://cdn/v.mp4" {
		t.Errorf("URL = %q", got.URL)
	}
	if winner.calls != 1 {
		t.Errorf("adapter calls = %d, want 1", winner.calls)
	}
}

func TestResolveCancelled(t *testing.T) {
	adapter := &stubAdapter{name: "a", result: &media.ResolvedMedia{URL: "https://cdn/v.mp4"}}
	r := newStubResolver(adapter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Resolve(ctx, testURL, media.QualityHigh); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if adapter.calls != 0 {
		t.Errorf("adapter invoked after cancellation")
	}
}

func TestDefaultChainsExhaustive(t *testing.T) {
	r := New(nil)
	for tier, chain := range r.chains {
		if len(chain) != 4 {
			t.Errorf("tier %v chain has %d adapters, want 4", tier, len(chain))
		}
		if last := chain[len(chain)-1].Name(); last != "scrape" {
			t.Errorf("tier %v chain ends with %q, want scrape last", tier, last)
		}
	}
	if first := r.chains[media.QualityStandard][0].Name(); first != "tikwm" {
		t.Errorf("standard chain starts with %q, want tikwm", first)
	}
	if first := r.chains[media.QualityHigh][0].Name(); first != "tikdownloader" {
		t.Errorf("high chain starts with %q, want tikdownloader", first)
	}
}
