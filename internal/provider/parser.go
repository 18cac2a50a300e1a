package provider

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/losthumanity/TikDownloader/internal/media"
)

// cdnLinkPattern matches raw TikTok CDN URLs embedded anywhere in markup.
// The least structured fallback: anything the anchor scan missed.
var cdnLinkPattern = regexp.MustCompile(`https://v16-[a-zA-Z0-9-]+\.tiktokcdn\.com/[^"'\s\\]+`)

// parseResultHTML extracts a normalized result from a tikdownloader.io
// HTML fragment. Link candidates are scanned in a fixed order derived
// from the requested tier: the anchor labeled "Download MP4 HD", the
// plain "Download MP4" anchor, then a raw CDN-URL scan. First structural
// match wins; there is no scoring.
func parseResultHTML(html string, tier media.QualityTier) (*media.ResolvedMedia, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h3").First().Text())
	if title == "" {
		title = "TikTok Video"
	}

	var hdURL, stdURL string
	doc.Find(`a[rel="nofollow"]`).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		label := strings.Join(strings.Fields(s.Text()), " ")
		switch {
		case strings.Contains(label, "Download MP4 HD"):
			if hdURL == "" {
				hdURL = href
			}
		case strings.Contains(label, "Download MP4"):
			if stdURL == "" {
				stdURL = href
			}
		}
	})

	videoURL, quality := pickParsedLink(hdURL, stdURL, tier)

	if videoURL == "" {
		// No labeled download anchors; fall back to a raw CDN link.
		if m := cdnLinkPattern.FindString(html); m != "" {
			videoURL, quality = m, "CDN_Direct"
		}
	}

	if videoURL == "" {
		return nil, fmt.Errorf("no download link found")
	}

	return &media.ResolvedMedia{
		URL:     videoURL,
		Title:   title,
		Author:  "Unknown",
		Quality: quality,
	}, nil
}

// pickParsedLink orders the labeled candidates per the requested tier.
func pickParsedLink(hdURL, stdURL string, tier media.QualityTier) (string, string) {
	switch {
	case tier == media.QualityStandard && stdURL != "":
		return stdURL, "Standard"
	case tier == media.QualityStandard && hdURL != "":
		return hdURL, "HD"
	case hdURL != "":
		return hdURL, "HD"
	case stdURL != "":
		return stdURL, "Standard"
	default:
		return "", ""
	}
}
