// Package fetch retrieves the binary payload of a resolved media URL.
// Redirects are followed manually under a hard cap, and the body is read
// in chunks under a stall watchdog.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/losthumanity/TikDownloader/internal/httputil"
	"github.com/losthumanity/TikDownloader/internal/media"
	"github.com/losthumanity/TikDownloader/internal/provider"
)

const (
	// maxRedirects caps manual Location following. Providers bounce
	// through a couple of CDN hops at most; anything deeper is a loop.
	maxRedirects = 5

	// chunkSize bounds peak memory per read and gives the stall watchdog
	// a regular heartbeat.
	chunkSize = 1 << 20 // 1 MiB

	// minPayloadSize is the plausibility floor: providers sometimes
	// answer 200 with a small HTML error page instead of the video.
	minPayloadSize = 1024

	// overallTimeout bounds one whole transfer, large enough for
	// multi-hundred-MB payloads.
	overallTimeout = 10 * time.Minute

	// readTimeout is the per-chunk stall budget: it distinguishes "server
	// never answered" (connect/header timeouts) from "server stalled
	// mid-transfer".
	readTimeout = 60 * time.Second
)

var (
	// ErrTooManyRedirects is returned when a transfer exceeds the
	// redirect cap.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrPayloadTooSmall is returned when a completed download is under
	// the plausibility floor.
	ErrPayloadTooSmall = errors.New("downloaded payload implausibly small")
)

// Fetcher downloads media payloads. It holds only the shared transport
// client and is safe for concurrent use.
type Fetcher struct {
	client *http.Client

	// stallTimeout is the per-chunk read budget, readTimeout unless
	// overridden.
	stallTimeout time.Duration
}

// New creates a Fetcher with the tuned download client.
func New() *Fetcher {
	return NewWithClient(httputil.NewDownloadClient())
}

// NewWithClient creates a Fetcher around an existing client. The client
// must not follow redirects itself.
func NewWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client, stallTimeout: readTimeout}
}

// Fetch downloads the media at mediaURL and returns the payload.
// Host-relative URLs are resolved against the provider known to return
// them. The caller's context cancels the transfer at any point.
func (f *Fetcher) Fetch(ctx context.Context, mediaURL string) (*media.Payload, error) {
	if mediaURL == "" {
		return nil, fmt.Errorf("no media URL provided")
	}
	// tikwm is the one provider that returns host-relative paths.
	if strings.HasPrefix(mediaURL, "/") {
		mediaURL = provider.TikWMBase + mediaURL
	}
	if err := httputil.ValidateURL(mediaURL); err != nil {
		return nil, fmt.Errorf("invalid media URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, overallTimeout)
	defer cancel()

	log := logrus.WithField("url", truncateForLog(mediaURL))

	current := mediaURL
	for depth := 0; ; depth++ {
		if depth > maxRedirects {
			return nil, fmt.Errorf("%w (cap %d)", ErrTooManyRedirects, maxRedirects)
		}

		payload, redirect, err := f.fetchOnce(ctx, current)
		if err != nil {
			return nil, err
		}
		if redirect != "" {
			log.WithField("depth", depth+1).Debugf("following redirect to %s", truncateForLog(redirect))
			current = redirect
			continue
		}

		log.WithField("bytes", payload.Size).Info("download complete")
		return payload, nil
	}
}

// fetchOnce performs a single request. Exactly one of payload and
// redirect is set on success; a redirect target is returned already
// resolved against the request URL.
func (f *Fetcher) fetchOnce(ctx context.Context, mediaURL string) (*media.Payload, string, error) {
	// The watchdog cancels this context if a chunk read stalls.
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	setDownloadHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("transport failure: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to the body read
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		location := resp.Header.Get("Location")
		if location == "" {
			return nil, "", fmt.Errorf("redirect status %d without Location header", resp.StatusCode)
		}
		target, err := resolveLocation(mediaURL, location)
		if err != nil {
			return nil, "", fmt.Errorf("resolving redirect target: %w", err)
		}
		return nil, target, nil
	default:
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)

	watchdog := time.AfterFunc(f.stallTimeout, cancel)
	defer watchdog.Stop()

	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			watchdog.Reset(f.stallTimeout)
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", fmt.Errorf("transport failure: %w", ctx.Err())
			}
			if reqCtx.Err() != nil {
				return nil, "", fmt.Errorf("transport failure: read stalled for %s: %w", f.stallTimeout, err)
			}
			return nil, "", fmt.Errorf("transport failure: reading body: %w", err)
		}
	}

	if buf.Len() < minPayloadSize {
		return nil, "", fmt.Errorf("%w: %d bytes", ErrPayloadTooSmall, buf.Len())
	}

	return &media.Payload{Data: buf.Bytes(), Size: int64(buf.Len())}, "", nil
}

// setDownloadHeaders applies provider-aware headers: the known provider's
// CDN rejects requests that do not look like they came from its own site,
// while unknown hosts get generic browser headers.
func setDownloadHeaders(req *http.Request) {
	httputil.SetBrowserHeaders(req)

	if strings.Contains(req.URL.Host, "tikwm") {
		req.Header.Set("Origin", provider.TikWMBase)
		req.Header.Set("Referer", provider.TikWMBase+"/")
		req.Header.Set("Sec-Fetch-Dest", "video")
		req.Header.Set("Sec-Fetch-Mode", "cors")
		req.Header.Set("Sec-Fetch-Site", "cross-site")
	}
}

// resolveLocation resolves a possibly-relative Location header against
// the URL that produced it.
func resolveLocation(base, location string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// truncateForLog keeps signed CDN URLs from flooding logs.
func truncateForLog(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
