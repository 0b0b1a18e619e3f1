// Package network provides the shared HTTP client used for the Stash server and the Handy API.
package network

import (
	"net/http"
	"time"

	"github.com/sceneplay/sceneplay/constant"
)

// Client is shared across the application. Device commands are latency sensitive,
// so response headers must arrive quickly.
var Client = &http.Client{
	Timeout:   30 * time.Second,
	Transport: &userAgentTransport{base: newTransport()},
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 20
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 90 * time.Second
	t.ResponseHeaderTimeout = 10 * time.Second
	return t
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", constant.UserAgent)
	}
	return t.base.RoundTrip(req)
}
