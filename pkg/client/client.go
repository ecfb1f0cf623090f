// Package client talks to a HelloWorld overlay: it submits token evidence under the
// tm_helloworld topic and looks up tokens through the ls_helloworld service.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/utils"
)

// DefaultConcurrency bounds how many lookup outputs are decoded at once.
const DefaultConcurrency = 8

const (
	submitPath = "/submit"
	lookupPath = "/lookup"
)

// Static error variables for err113 compliance
var (
	errOverlayURLInvalid  = errors.New("overlay URL must be an absolute http or https URL")
	errConcurrencyInvalid = errors.New("concurrency must be at least 1")
)

// Client is a HelloWorld overlay client. It is safe for concurrent use.
type Client struct {
	overlayURL  string
	http        *resty.Client
	logger      *slog.Logger
	concurrency int
	metrics     *metrics
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sends requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.http = resty.NewWithClient(hc)
		return nil
	}
}

// WithLogger sets the logger used for per-output lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithConcurrency bounds parallel decoding of lookup outputs.
func WithConcurrency(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", errConcurrencyInvalid, n)
		}
		c.concurrency = n
		return nil
	}
}

// WithMetrics registers request and lookup counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) error {
		m, err := newMetrics(reg)
		if err != nil {
			return err
		}
		c.metrics = m
		return nil
	}
}

// New creates a client for the overlay at overlayURL.
func New(overlayURL string, opts ...Option) (*Client, error) {
	if !utils.IsValidOverlayURL(overlayURL) {
		return nil, fmt.Errorf("%w: %q", errOverlayURLInvalid, overlayURL)
	}

	c := &Client{
		overlayURL:  strings.TrimRight(overlayURL, "/"),
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.http == nil {
		c.http = resty.New()
	}
	return c, nil
}

// OverlayURL returns the overlay base URL without a trailing slash.
func (c *Client) OverlayURL() string {
	return c.overlayURL
}

// post sends one POST and returns the raw response.
func (c *Client) post(ctx context.Context, path string, headers map[string]string, body []byte) (*resty.Response, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(c.overlayURL + path)
	if err != nil {
		c.metrics.observeRequest(path, outcomeTransportError)
		return nil, err
	}
	return resp, nil
}
