// Package provider implements the third-party resolution services that
// translate a TikTok link into a direct, fetchable media URL.
//
// Every adapter speaks one provider's dialect: its request shape, its
// header expectations, and its response format. Expected failures (bad
// status, missing field, malformed payload) are returned as errors so that
// one flaky provider does not abort the whole resolution chain.
package provider

import (
	"context"

	"github.com/losthumanity/TikDownloader/internal/media"
)

// Adapter resolves a TikTok URL through one provider.
type Adapter interface {
	// Name identifies the adapter in logs and result provenance.
	Name() string

	// Resolve translates the raw TikTok URL into a normalized result.
	// An error return is a normal outcome; the orchestrator advances to
	// the next adapter in the chain.
	Resolve(ctx context.Context, rawURL string, tier media.QualityTier) (*media.ResolvedMedia, error)
}
