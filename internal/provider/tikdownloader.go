package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/losthumanity/TikDownloader/internal/httputil"
	"github.com/losthumanity/TikDownloader/internal/media"
)

const tikDownloaderBase = "https://tikdownloader.io"

// TikDownloader resolves videos through tikdownloader.io. The provider
// answers its ajaxSearch endpoint with a JSON envelope whose data field
// is an HTML fragment; the actual download links live in that markup.
type TikDownloader struct {
	base   string
	client *http.Client
}

// NewTikDownloader creates a tikdownloader adapter sharing the given
// transport client.
func NewTikDownloader(client *http.Client) *TikDownloader {
	return &TikDownloader{base: tikDownloaderBase, client: client}
}

func (a *TikDownloader) Name() string { return "tikdownloader" }

// Resolve POSTs the video URL to the search endpoint and hands the HTML
// payload to the response parser.
func (a *TikDownloader) Resolve(ctx context.Context, rawURL string, tier media.QualityTier) (*media.ResolvedMedia, error) {
	form := url.Values{
		"q":    {rawURL},
		"lang": {"en"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/api/ajaxSearch", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httputil.SetBrowserHeaders(req)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Origin", a.base)
	req.Header.Set("Referer", a.base+"/en")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var out struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if out.Data == "" {
		return nil, fmt.Errorf("no data in response")
	}

	resolved, err := parseResultHTML(out.Data, tier)
	if err != nil {
		return nil, fmt.Errorf("parsing result markup: %w", err)
	}
	resolved.Source = a.Name()
	return resolved, nil
}
