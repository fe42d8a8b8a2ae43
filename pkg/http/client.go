// Package http issues the GET requests of freshfetch. A Client adds the
// configured identity headers, follows standard redirects as well as the
// non-standard Refresh header, retries failed connection attempts once and
// hands each response to a Consumer.
package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/glorpus-work/freshfetch/internal/logger"
	"github.com/glorpus-work/freshfetch/pkg/config"
	"github.com/glorpus-work/freshfetch/pkg/errors"
)

// Identity selects the User-Agent of a request.
type Identity int

// Identities.
const (
	IdentityPrimary Identity = iota
	IdentityAlternate
)

// Options tune a single request.
type Options struct {
	UserAgent Identity
	// SelfReferer sets the Referer header to the request URL.
	SelfReferer bool
	// IfModifiedSince makes the request conditional when non-zero.
	IfModifiedSince time.Time
	// NoRedirect returns the first response as is, without following
	// Location or Refresh headers.
	NoRedirect bool
}

const (
	bufferSize = 32 * 1024

	headerAccept          = "*/*"
	headerAcceptEncodings = "gzip, deflate"
)

// Client is safe for sequential reuse across profiles. It is created once
// per run and closed at the end.
type Client struct {
	follow   *http.Client
	noFollow *http.Client
	cfg      config.HTTPConfig
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client from the HTTP settings.
func NewClient(cfg config.HTTPConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultHTTPTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = config.DefaultMaxRedirects
	}

	transport := newTransport(cfg.Timeout)

	c := &Client{cfg: cfg, sleep: sleepContext}
	c.follow = &http.Client{
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= c.cfg.MaxRedirects {
				return errors.ErrTooManyRedirects
			}
			return nil
		},
	}
	c.noFollow = &http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return c
}

func newTransport(timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &readTimeoutConn{Conn: conn, timeout: timeout}, nil
		},
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       time.Minute,
		MaxIdleConnsPerHost:   4,
		// Bodies are decoded by the consumers, which need the declared encoding.
		DisableCompression: true,
	}
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.follow.CloseIdleConnections()
}

// Execute performs one GET exchange for u and feeds the response to consumer.
func (c *Client) Execute(ctx context.Context, u *url.URL, opts Options, consumer Consumer) error {
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("Failed to release response consumer", logger.Fields{"error": err.Error()})
		}
	}()

	resp, err := c.send(ctx, u, opts)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	action, err := consumer.Start(resp)
	if err != nil {
		return err
	}

	if action == Read {
		if err := stream(resp.Body, consumer); err != nil {
			return err
		}
	}

	return consumer.Finish()
}

func stream(body io.Reader, consumer Consumer) error {
	buf := make([]byte, bufferSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if derr := consumer.Data(buf[:n]); derr != nil {
				return derr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Transport(err, "failed to read response body")
		}
	}
}

// send issues the request and follows Refresh headers the standard
// redirect handling of net/http does not know about.
func (c *Client) send(ctx context.Context, u *url.URL, opts Options) (*http.Response, error) {
	target := u
	for hops := 0; ; hops++ {
		resp, err := c.do(ctx, target, opts)
		if err != nil {
			return nil, err
		}
		if opts.NoRedirect {
			return resp, nil
		}

		next, ok, err := ComputeRedirect(resp.Request.URL, resp)
		if err != nil {
			_ = resp.Body.Close()
			return nil, err
		}
		if !ok {
			return resp, nil
		}

		drain(resp.Body)
		if hops+1 >= c.cfg.MaxRedirects {
			return nil, errors.ErrTooManyRedirects
		}
		logger.Debug("Following Refresh header", logger.Fields{"from": resp.Request.URL.String(), "to": next.String()})
		target = next
	}
}

// do sends one request, retrying connection failures as ShouldRetry allows.
func (c *Client) do(ctx context.Context, u *url.URL, opts Options) (*http.Response, error) {
	client := c.follow
	if opts.NoRedirect {
		client = c.noFollow
	}

	for attempt := 0; ; attempt++ {
		req, err := c.newRequest(ctx, u, opts)
		if err != nil {
			return nil, errors.Transport(err, "failed to create request")
		}

		logger.Debug("Sending request", logger.Fields{"method": req.Method, "url": u.String(), "attempt": attempt + 1})
		resp, err := client.Do(req)
		if err == nil {
			return resp, nil
		}

		if attempt >= c.cfg.MaxRetries || !ShouldRetry(err) {
			return nil, errors.Transport(err, "request failed")
		}

		logger.Warn("Request failed, retrying", logger.Fields{"url": u.String(), "error": err.Error()})
		if serr := c.sleep(ctx, c.cfg.RetryInterval); serr != nil {
			return nil, errors.Transport(serr, "request interrupted")
		}
	}
}

func (c *Client) newRequest(ctx context.Context, u *url.URL, opts Options) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent(opts.UserAgent))
	req.Header.Set("Accept", headerAccept)
	req.Header.Set("Accept-Encoding", headerAcceptEncodings)
	if c.cfg.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", c.cfg.AcceptLanguage)
	}
	if opts.SelfReferer {
		req.Header.Set("Referer", req.URL.String())
	}
	if !opts.IfModifiedSince.IsZero() {
		req.Header.Set("If-Modified-Since", opts.IfModifiedSince.UTC().Format(http.TimeFormat))
	}

	return req, nil
}

func (c *Client) userAgent(id Identity) string {
	if id == IdentityAlternate && c.cfg.UserAgents.Alternate != "" {
		return c.cfg.UserAgents.Alternate
	}
	if c.cfg.UserAgents.Primary != "" {
		return c.cfg.UserAgents.Primary
	}
	return config.DefaultPrimaryUserAgent
}

func drain(body io.ReadCloser) {
	_, _ = io.CopyN(io.Discard, body, bufferSize)
	_ = body.Close()
}

// FetchText returns the body of u decoded with the charset the response
// declares, or UTF-8 when it declares none.
func (c *Client) FetchText(ctx context.Context, u *url.URL, opts Options) (string, error) {
	consumer := &TextConsumer{}
	if err := c.Execute(ctx, u, opts, consumer); err != nil {
		return "", err
	}
	return consumer.Text(), nil
}

// FetchRedirectTarget returns the location u redirects to. Redirects are
// not followed for this call, so the first Location is returned, resolved
// against u.
func (c *Client) FetchRedirectTarget(ctx context.Context, u *url.URL, opts Options) (*url.URL, error) {
	opts.NoRedirect = true
	consumer := &RedirectConsumer{}
	if err := c.Execute(ctx, u, opts, consumer); err != nil {
		return nil, err
	}
	return consumer.Location(), nil
}
