// Package resolve orchestrates the provider adapter chain: given a TikTok
// URL and a quality tier it tries each adapter in strict order and returns
// the first success.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/losthumanity/TikDownloader/internal/httputil"
	"github.com/losthumanity/TikDownloader/internal/media"
	"github.com/losthumanity/TikDownloader/internal/provider"
	"github.com/losthumanity/TikDownloader/internal/tiktok"
)

var (
	// ErrInvalidURL is returned when the input is not a TikTok link.
	ErrInvalidURL = errors.New("invalid TikTok URL")

	// ErrNoIdentifier is returned when no video identifier could be
	// extracted from an otherwise valid TikTok link.
	ErrNoIdentifier = errors.New("could not extract video ID from URL")

	// ErrExhausted is returned when every adapter in the chain failed.
	ErrExhausted = errors.New("all download methods failed, the video may be private or unavailable")
)

// Resolver holds the per-tier adapter chains. It is stateless per call
// and safe for concurrent use; the only shared resource is the transport
// client inside the adapters.
type Resolver struct {
	chains map[media.QualityTier][]provider.Adapter
}

// New builds a Resolver with the default adapter set. Both tiers try
// every adapter; only the order differs. High leads with the provider
// returning the best clean variants, Standard with the one returning
// smaller, faster files. The page scrape is always last.
func New(client *http.Client) *Resolver {
	if client == nil {
		client = httputil.NewClient()
	}

	td := provider.NewTikDownloader(client)
	tw := provider.NewTikWM(client)
	md := provider.NewMusicalDown(client)
	sc := provider.NewPageScrape(client)

	return &Resolver{
		chains: map[media.QualityTier][]provider.Adapter{
			media.QualityHigh:     {td, tw, md, sc},
			media.QualityStandard: {tw, td, md, sc},
		},
	}
}

// Resolve validates the URL and walks the tier's adapter chain
// sequentially, returning the first adapter's success. Individual adapter
// failures are expected and only logged; the error return distinguishes
// invalid input from an exhausted chain.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, tier media.QualityTier) (*media.ResolvedMedia, error) {
	log := logrus.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"tier":       tier.String(),
	})

	if !tiktok.ValidateURL(rawURL) {
		return nil, ErrInvalidURL
	}

	videoID, ok := tiktok.ExtractVideoID(rawURL)
	if !ok {
		return nil, ErrNoIdentifier
	}
	log = log.WithField("video_id", videoID)

	chain := r.chains[tier]
	if len(chain) == 0 {
		chain = r.chains[media.QualityHigh]
	}
	log.Debugf("adapter chain: %v", lo.Map(chain, func(a provider.Adapter, _ int) string {
		return a.Name()
	}))

	lastName := ""
	for _, adapter := range chain {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolution cancelled: %w", err)
		}

		lastName = adapter.Name()
		resolved, err := adapter.Resolve(ctx, rawURL, tier)
		if err != nil {
			log.WithField("adapter", lastName).Debugf("adapter failed: %v", err)
			continue
		}

		log.WithFields(logrus.Fields{
			"adapter": lastName,
			"quality": resolved.Quality,
		}).Info("resolved media URL")
		return resolved, nil
	}

	log.Warn("resolution exhausted: every adapter failed")
	return nil, fmt.Errorf("%w (last tried: %s)", ErrExhausted, lastName)
}
