// Package tiktok validates TikTok links and extracts canonical video
// identifiers. Pure string processing, no network access.
package tiktok

import (
	"net/url"
	"regexp"
	"strings"
)

// allowedHosts is the fixed allow-list of TikTok domains, apex plus the
// known short-link subdomains.
var allowedHosts = map[string]bool{
	"tiktok.com":     true,
	"www.tiktok.com": true,
	"vm.tiktok.com":  true,
	"vt.tiktok.com":  true,
}

// idPatterns are tried in order; the first capture group that matches wins.
// Long-form URLs carry the numeric video ID, short links only a token.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/@[^/]+/video/(\d+)`),
	regexp.MustCompile(`https?://(?:vm|vt)\.tiktok\.com/([A-Za-z0-9]+)`),
	regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/t/([A-Za-z0-9]+)`),
	regexp.MustCompile(`/video/(\d+)`),
	regexp.MustCompile(`(\d{19})`),
}

// ValidateURL reports whether raw is a well-formed link on one of the
// known TikTok domains.
func ValidateURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return allowedHosts[strings.ToLower(u.Hostname())]
}

// ExtractVideoID extracts a canonical video identifier from any of the
// supported URL forms. Short-link forms yield the link token rather than
// the numeric ID. Absence is a normal outcome, not an error.
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, pat := range idPatterns {
		if m := pat.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}
