package http

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/glorpus-work/freshfetch/pkg/errors"
)

// TextConsumer collects a 200 response body as text.
type TextConsumer struct {
	buf         bytes.Buffer
	contentType string
	coding      string
	text        string
}

// Start implements Consumer.
func (c *TextConsumer) Start(resp *http.Response) (Action, error) {
	if resp.StatusCode != http.StatusOK {
		return Skip, NewStatusError(resp)
	}
	c.contentType = resp.Header.Get("Content-Type")
	c.coding = resp.Header.Get("Content-Encoding")
	return Read, nil
}

// Data implements Consumer.
func (c *TextConsumer) Data(p []byte) error {
	_, err := c.buf.Write(p)
	return err
}

// Finish implements Consumer.
func (c *TextConsumer) Finish() error {
	body, err := decodeBody(c.coding, c.buf.Bytes())
	if err != nil {
		return err
	}
	c.text, err = decodeCharset(body, c.contentType)
	return err
}

// Close implements Consumer.
func (c *TextConsumer) Close() error {
	c.buf.Reset()
	return nil
}

// Text returns the decoded body after a successful exchange.
func (c *TextConsumer) Text() string { return c.text }

// RedirectConsumer accepts only a standard redirect and keeps its location.
type RedirectConsumer struct {
	location *url.URL
}

// Start implements Consumer.
func (c *RedirectConsumer) Start(resp *http.Response) (Action, error) {
	if !IsRedirectStatus(resp.StatusCode) {
		return Skip, errors.Wrapf(errors.ErrNotRedirected, "status %d from %s", resp.StatusCode, resp.Request.URL)
	}
	loc, _, err := locationRedirect(resp.Request.URL, resp)
	if err != nil {
		return Skip, err
	}
	c.location = loc
	return Skip, nil
}

// Data implements Consumer.
func (c *RedirectConsumer) Data([]byte) error { return nil }

// Finish implements Consumer.
func (c *RedirectConsumer) Finish() error { return nil }

// Close implements Consumer.
func (c *RedirectConsumer) Close() error { return nil }

// Location returns the resolved redirect target.
func (c *RedirectConsumer) Location() *url.URL { return c.location }

// NewStatusError builds the error reported for a status the caller does not
// accept.
func NewStatusError(resp *http.Response) error {
	u := ""
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL.String()
	}
	return &errors.StatusError{Code: resp.StatusCode, Status: resp.Status, URL: u}
}
