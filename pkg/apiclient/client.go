// Package apiclient issues requests against the appliance's shared-folder
// management API and hands back the raw responses for decoding.
package apiclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/marmos91/sharecheck/internal/telemetry"
)

// Endpoint paths, relative to the configured API address.
const (
	PathLogin             = "/login"
	PathCreateFolder      = "/create_shared_folder"
	PathDeleteFolder      = "/delete_shared_folder"
	PathEditFolder        = "/edit_shared_folder"
	PathRealtimeStatistic = "/json/realtime_statistic"
)

// DefaultTimeout is the per-call timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// Client is the appliance API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cookies    []*http.Cookie
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithInsecureSkipVerify controls TLS certificate verification. Appliances
// usually present self-signed certificates, so verification is off by default.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		tr, ok := c.httpClient.Transport.(*http.Transport)
		if !ok {
			return
		}
		tr = tr.Clone()
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{}
		}
		tr.TLSClientConfig.InsecureSkipVerify = skip
		c.httpClient.Transport = tr
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a new API client for the given API address
// (e.g. https://10.0.0.5:8080/cgi-bin/ezs3).
func New(baseURL string, opts ...Option) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // appliance certificates are self-signed

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: tr,
			Timeout:   DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithCookies returns a new client that sends the given session cookies.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	return &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		cookies:    append([]*http.Cookie(nil), cookies...),
	}
}

// RawResponse is an undecoded appliance response.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Cookies     []*http.Cookie
}

// do performs an HTTP request and returns the raw response.
// A non-nil form is sent as an urlencoded POST body.
func (c *Client) do(ctx context.Context, op, method, path string, query, form url.Values) (*RawResponse, error) {
	ctx, span := telemetry.StartRequestSpan(ctx, op, method, spanAttributes(query, form)...)
	defer span.End()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := &TransportError{Op: op, Err: err}
		telemetry.RecordError(ctx, terr)
		return nil, terr
	}
	defer func() { _ = resp.Body.Close() }()

	telemetry.SetAttributes(ctx, telemetry.HTTPStatus(resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
		telemetry.RecordError(ctx, terr)
		return nil, terr
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		terr := &TransportError{Op: op, StatusCode: resp.StatusCode, Err: ErrUnauthorized}
		telemetry.RecordError(ctx, terr)
		return nil, terr
	}

	return &RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
		Cookies:     resp.Cookies(),
	}, nil
}

// spanAttributes names the folder a request targets, if any.
func spanAttributes(query, form url.Values) []attribute.KeyValue {
	for _, v := range []url.Values{query, form} {
		if name := v.Get("name"); name != "" {
			return []attribute.KeyValue{telemetry.Folder(name)}
		}
	}
	return nil
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) (*RawResponse, error) {
	return c.do(ctx, op, http.MethodGet, path, query, nil)
}

// postForm performs a form-encoded POST request.
func (c *Client) postForm(ctx context.Context, op, path string, form url.Values) (*RawResponse, error) {
	if form == nil {
		form = url.Values{}
	}
	return c.do(ctx, op, http.MethodPost, path, nil, form)
}
