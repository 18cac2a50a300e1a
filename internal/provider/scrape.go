package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/losthumanity/TikDownloader/internal/httputil"
	"github.com/losthumanity/TikDownloader/internal/media"
)

// PageScrape is the last-resort adapter: it fetches the TikTok page
// itself and digs through the embedded state blob and inline markup for
// a playable URL. Its dependence on page structure makes it the least
// reliable adapter, so it is ordered last in every chain.
type PageScrape struct {
	client *http.Client
}

// NewPageScrape creates the page-scrape adapter sharing the given
// transport client.
func NewPageScrape(client *http.Client) *PageScrape {
	return &PageScrape{client: client}
}

func (a *PageScrape) Name() string { return "scrape" }

var (
	initialStatePattern = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.*?\});`)

	// inlinePatterns are tried in order after the state blob. The capture
	// group holds a JSON-escaped media URL.
	inlinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`"downloadAddr":"([^"]+)"`),
		regexp.MustCompile(`"playAddr":"([^"]+)"`),
		regexp.MustCompile(`<video[^>]*src="([^"]+)"`),
	}
)

// Resolve GETs the TikTok page with browser headers and scans it for a
// playable URL.
func (a *PageScrape) Resolve(ctx context.Context, rawURL string, _ media.QualityTier) (*media.ResolvedMedia, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httputil.SetBrowserHeaders(req)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	html := string(body)

	if m := initialStatePattern.FindStringSubmatch(html); m != nil {
		var state map[string]any
		if err := json.Unmarshal([]byte(m[1]), &state); err == nil {
			if resolved, ok := extractFromInitialState(state); ok {
				resolved.Source = a.Name()
				return resolved, nil
			}
		}
		// Malformed or restructured blob: fall through to inline patterns.
	}

	for _, pat := range inlinePatterns {
		if m := pat.FindStringSubmatch(html); m != nil {
			return &media.ResolvedMedia{
				URL:     unescapeMediaURL(m[1]),
				Title:   "TikTok Video",
				Author:  "Unknown",
				Quality: "Unknown",
				Source:  a.Name(),
			}, nil
		}
	}

	return nil, fmt.Errorf("no playable URL found in page")
}

// statePaths are the known key-paths into the initial-state blob where
// video objects have been observed. The structure changes without notice;
// the first path that yields an object with a playAddr wins.
var statePaths = [][]string{
	{"ItemModule", "video"},
	{"VideoPage", "video"},
	{"ItemList", "video-detail"},
	{"seo", "metaParams"},
}

// extractFromInitialState walks the fixed key-paths through a decoded
// initial-state blob looking for a video object with a playable URL.
func extractFromInitialState(state map[string]any) (*media.ResolvedMedia, bool) {
	for _, path := range statePaths {
		node := walkPath(state, path)
		video, ok := node.(map[string]any)
		if !ok {
			continue
		}
		playAddr, ok := video["playAddr"]
		if !ok {
			continue
		}

		videoURL := playAddrURL(playAddr)
		if videoURL == "" {
			continue
		}

		title, _ := video["desc"].(string)
		if title == "" {
			title = "TikTok Video"
		}
		author := "Unknown"
		if am, ok := video["author"].(map[string]any); ok {
			if nick, ok := am["nickname"].(string); ok && nick != "" {
				author = nick
			}
		}

		return &media.ResolvedMedia{
			URL:     videoURL,
			Title:   title,
			Author:  author,
			Quality: "HD",
		}, true
	}
	return nil, false
}

// walkPath descends through nested objects key by key, returning nil as
// soon as a key is missing or a node is not an object.
func walkPath(state map[string]any, path []string) any {
	var node any = state
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node, ok = m[key]
		if !ok {
			return nil
		}
	}
	return node
}

// playAddrURL handles both observed playAddr shapes: a plain string and
// an object carrying a UrlList array.
func playAddrURL(playAddr any) string {
	switch v := playAddr.(type) {
	case string:
		return unescapeMediaURL(v)
	case map[string]any:
		list, ok := v["UrlList"].([]any)
		if !ok || len(list) == 0 {
			return ""
		}
		s, _ := list[0].(string)
		return unescapeMediaURL(s)
	default:
		return ""
	}
}

// unescapeMediaURL undoes the JSON escaping TikTok applies to embedded
// URLs. Slashes appear both as the unicode escape / and as the
// short form \/.
func unescapeMediaURL(s string) string {
	s = strings.ReplaceAll(s, `/`, "/")
	s = strings.ReplaceAll(s, `/`, "/")
	return strings.ReplaceAll(s, `\/`, "/")
}
