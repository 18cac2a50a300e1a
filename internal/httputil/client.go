// Package httputil provides shared hardened HTTP clients, common header
// sets, and input sanitization utilities.
package httputil

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// UserAgent is the browser identity presented to providers. Several of
// them reject requests from obvious non-browser clients.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewClient creates a hardened HTTP client for provider resolution calls.
// Resolution requests are small; 30 seconds bounds each attempt.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  false,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// NewDownloadClient creates a client for large media transfers. A
// multi-hundred-MB payload legitimately takes minutes, so there is no
// overall client timeout; the phases are bounded separately: 30s to
// connect, 30s for response headers, and the caller's context for the
// whole transfer.
// Redirects are not followed automatically; the fetcher follows them itself
// under an explicit depth cap.
func NewDownloadClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			TLSHandshakeTimeout:   15 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConnsPerHost:   5,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// SetBrowserHeaders applies generic browser-like headers to a request.
// Adapter-specific header sets (Origin, Referer, XHR markers) are layered
// on top by each adapter.
func SetBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
