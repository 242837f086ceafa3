package xbl

import (
	"net/http"
	"time"
)

// Doer issues a single HTTP request and blocks until the response or a
// transport error. Implementations must not retry or follow redirects;
// the flow depends on seeing every response, including Set-Cookie
// headers, exactly as the authority sent it. Tests substitute stub
// authorities here.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns an http.Client configured for the bind flow:
// bounded by a transport timeout and never following redirects.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
