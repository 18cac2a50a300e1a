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

// TikWMBase is the tikwm.com origin. The provider sometimes returns
// host-relative media paths that must be resolved against it, both here
// and later by the fetcher.
const TikWMBase = "https://www.tikwm.com"

// TikWM resolves videos through the tikwm.com JSON API. It is the one
// adapter that reliably distinguishes a watermark-free HD variant
// (hdplay) from the basic watermarked one (play).
type TikWM struct {
	base   string
	client *http.Client
}

// NewTikWM creates a tikwm adapter sharing the given transport client.
func NewTikWM(client *http.Client) *TikWM {
	return &TikWM{base: TikWMBase, client: client}
}

func (a *TikWM) Name() string { return "tikwm" }

// tikwmResponse is the provider's envelope. code 0 means success; any
// other code carries a human-readable msg.
type tikwmResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Play     string `json:"play"`
		HDPlay   string `json:"hdplay"`
		Title    string `json:"title"`
		Duration int    `json:"duration"`
		Cover    string `json:"cover"`
		Author   struct {
			Nickname string `json:"nickname"`
		} `json:"author"`
	} `json:"data"`
}

// Resolve POSTs the video URL as a form body and picks the quality
// variant matching the requested tier.
func (a *TikWM) Resolve(ctx context.Context, rawURL string, tier media.QualityTier) (*media.ResolvedMedia, error) {
	form := url.Values{
		"url":    {rawURL},
		"count":  {"12"},
		"cursor": {"0"},
		"web":    {"1"},
		"hd":     {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/api/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httputil.SetBrowserHeaders(req)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Origin", a.base)
	req.Header.Set("Referer", a.base+"/")

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

	var out tikwmResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("provider error code %d: %s", out.Code, out.Msg)
	}

	mediaURL, quality := pickTikWMVariant(out.Data.Play, out.Data.HDPlay, tier)
	if mediaURL == "" {
		return nil, fmt.Errorf("no playable URL in response")
	}
	// tikwm returns host-relative paths for some videos
	if strings.HasPrefix(mediaURL, "/") {
		mediaURL = a.base + mediaURL
	}

	title := out.Data.Title
	if title == "" {
		title = "TikTok Video"
	}
	author := out.Data.Author.Nickname
	if author == "" {
		author = "Unknown"
	}

	return &media.ResolvedMedia{
		URL:       mediaURL,
		Title:     title,
		Author:    author,
		Quality:   quality,
		Thumbnail: out.Data.Cover,
		Duration:  out.Data.Duration,
		Source:    a.Name(),
	}, nil
}

// pickTikWMVariant chooses between the watermarked (play) and clean HD
// (hdplay) fields per the requested tier, falling back to whichever is
// present when the preferred one is absent.
func pickTikWMVariant(play, hdplay string, tier media.QualityTier) (string, string) {
	switch {
	case tier == media.QualityStandard && play != "":
		return play, "SD"
	case tier == media.QualityStandard && hdplay != "":
		return hdplay, "HD"
	case hdplay != "":
		return hdplay, "HD"
	case play != "":
		return play, "SD"
	default:
		return "", ""
	}
}
