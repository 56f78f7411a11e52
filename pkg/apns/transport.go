package apns

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

const (
	// DefaultTimeout bounds each push request end to end.
	DefaultTimeout = 30 * time.Second

	// The gateway drops idle connections without a GOAWAY frame. Pinging
	// on a long read-idle window keeps pooled connections usable.
	readIdleTimeout = time.Hour
	pingTimeout     = 60 * time.Second
)

// TransportConfig controls the HTTP/2 transport used to reach the gateway.
// The zero value is valid for provider-token authentication.
type TransportConfig struct {
	// ClientCertificatePEM holds a provider certificate and its private
	// key, both PEM-encoded in the same buffer, for certificate-based
	// authentication. Leave empty when authenticating with provider
	// tokens.
	ClientCertificatePEM []byte

	// RootCAsPEM replaces the system root pool. Used to trust a mock
	// gateway in tests.
	RootCAsPEM []byte

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
}

// NewHTTPClient builds the HTTP/2 client the gateway requires. HTTP/1.x
// requests are rejected by the service, so the transport speaks h2
// exclusively.
func NewHTTPClient(cfg TransportConfig) (*http.Client, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if len(cfg.ClientCertificatePEM) > 0 {
		cert, err := tls.X509KeyPair(cfg.ClientCertificatePEM, cfg.ClientCertificatePEM)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if len(cfg.RootCAsPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(cfg.RootCAsPEM) {
			return nil, errors.New("no certificates found in root CA bundle")
		}
		tlsConfig.RootCAs = pool
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http2.Transport{
			TLSClientConfig: tlsConfig,
			ReadIdleTimeout: readIdleTimeout,
			PingTimeout:     pingTimeout,
		},
	}, nil
}
