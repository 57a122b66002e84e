package mtls

import (
	"crypto/tls"
	"net/http"
	"time"
)

// Factory builds mutual-TLS HTTP clients per product family. Two kinds exist:
// the auth client talks only to the OAuth2 token endpoint, while the api
// client additionally stamps the application key header on every request
// (bearer tokens are per-request and stay with the gateway).
type Factory struct {
	store   *Store
	timeout time.Duration
}

// NewFactory creates a Factory with the given per-request timeout.
func NewFactory(store *Store, timeout time.Duration) *Factory {
	return &Factory{store: store, timeout: timeout}
}

// AuthClient builds the client used against the token endpoint.
func (f *Factory) AuthClient(familia string) (*http.Client, error) {
	transport, err := f.transport(familia)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: transport, Timeout: f.timeout}, nil
}

// APIClient builds the client used against the product APIs, carrying the
// application key on every request.
func (f *Factory) APIClient(familia, appKey string) (*http.Client, error) {
	transport, err := f.transport(familia)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &appKeyTransport{base: transport, appKey: appKey},
		Timeout:   f.timeout,
	}, nil
}

func (f *Factory) transport(familia string) (*http.Transport, error) {
	cert, pool, err := f.store.Load(familia)
	if err != nil {
		return nil, err
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if pool != nil {
		tlsCfg.RootCAs = pool
	}

	return &http.Transport{
		TLSClientConfig:     tlsCfg,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}, nil
}

// appKeyTransport stamps the bank's application key header.
type appKeyTransport struct {
	base   http.RoundTripper
	appKey string
}

func (t *appKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("gw-dev-app-key", t.appKey)
	return t.base.RoundTrip(clone)
}
