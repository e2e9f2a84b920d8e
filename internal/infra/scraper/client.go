package scraper

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// maxRedirects bounds redirect chains of feed URLs.
const maxRedirects = 5

// NewHTTPClient creates the HTTP client used for feed requests, with
// connection pooling and TLS 1.2+. timeout bounds a single attempt; the
// per-source context deadline bounds all attempts together.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12, // Enforce TLS 1.2+
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			return nil
		},
	}
}
