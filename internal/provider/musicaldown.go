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

const musicalDownBase = "https://musicaldown.com"

// MusicalDown resolves videos through the musicaldown.com converter API.
// The provider exposes a single quality variant, so the requested tier
// only influences where this adapter sits in the chain, not what it picks.
type MusicalDown struct {
	base   string
	client *http.Client
}

// NewMusicalDown creates a musicaldown adapter sharing the given
// transport client.
func NewMusicalDown(client *http.Client) *MusicalDown {
	return &MusicalDown{base: musicalDownBase, client: client}
}

func (a *MusicalDown) Name() string { return "musicaldown" }

// Resolve POSTs the video URL to the converter endpoint.
func (a *MusicalDown) Resolve(ctx context.Context, rawURL string, _ media.QualityTier) (*media.ResolvedMedia, error) {
	form := url.Values{
		"url":     {rawURL},
		"format":  {""},
		"quality": {"hd"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/api/converter/index", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httputil.SetBrowserHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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
		Success bool `json:"success"`
		Data    struct {
			URL       string `json:"url"`
			Title     string `json:"title"`
			Author    string `json:"author"`
			Thumbnail string `json:"thumbnail"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if !out.Success || out.Data.URL == "" {
		return nil, fmt.Errorf("no playable URL in response")
	}

	title := out.Data.Title
	if title == "" {
		title = "TikTok Video"
	}
	author := out.Data.Author
	if author == "" {
		author = "Unknown"
	}

	return &media.ResolvedMedia{
		URL:       out.Data.URL,
		Title:     title,
		Author:    author,
		Quality:   "HD",
		Thumbnail: out.Data.Thumbnail,
		Source:    a.Name(),
	}, nil
}
