package http

import (
	"net"
	"net/http"
	"time"
)

type TransportFunc func(http.RoundTripper) http.RoundTripper

type HttpOpts func(*httpConfig)

type httpConfig struct {
	connClientTimeout     time.Duration
	requestTimeout        time.Duration
	clientKeepAlive       time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	idleConnTimeout       time.Duration
	maxIdleConns          int
	maxIdleConnsPerHost   int
	transports            []TransportFunc
}

func defaultHTTPConfig() *httpConfig {
	return &httpConfig{
		connClientTimeout:     30 * time.Second,
		requestTimeout:        30 * time.Second,
		clientKeepAlive:       90 * time.Second,
		tlsHandshakeTimeout:   10 * time.Second,
		responseHeaderTimeout: 10 * time.Second,
		idleConnTimeout:       90 * time.Second,
		maxIdleConns:          100,
		maxIdleConnsPerHost:   10,
	}
}

func WithConnClientTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) { c.connClientTimeout = timeout }
}

func WithRequestTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) { c.requestTimeout = timeout }
}

func WithClientKeepAlive(keepAlive time.Duration) HttpOpts {
	return func(c *httpConfig) { c.clientKeepAlive = keepAlive }
}

func WithResponseHeaderTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) { c.responseHeaderTimeout = timeout }
}

func WithIdleConnTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) { c.idleConnTimeout = timeout }
}

func WithMaxIdleConnsPerHost(maxConns int) HttpOpts {
	return func(c *httpConfig) { c.maxIdleConnsPerHost = maxConns }
}

func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *httpConfig) { c.transports = append(c.transports, transport) }
}

func newClient(opts ...HttpOpts) *http.Client {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	dialer := net.Dialer{
		Timeout:   cfg.connClientTimeout,
		KeepAlive: cfg.clientKeepAlive,
	}

	var transport http.RoundTripper = &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.maxIdleConns,
		MaxIdleConnsPerHost:   cfg.maxIdleConnsPerHost,
		TLSHandshakeTimeout:   cfg.tlsHandshakeTimeout,
		ResponseHeaderTimeout: cfg.responseHeaderTimeout,
		IdleConnTimeout:       cfg.idleConnTimeout,
	}

	for _, transportFunc := range cfg.transports {
		transport = transportFunc(transport)
	}

	return &http.Client{
		Timeout:   cfg.requestTimeout,
		Transport: transport,
	}
}
