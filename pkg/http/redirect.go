package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/glorpus-work/freshfetch/pkg/errors"
)

// IsRedirectStatus reports whether code is one of the standard redirect
// statuses.
func IsRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// ComputeRedirect returns the location resp redirects to, resolved against
// reqURL. A standard redirect status needs a Location header. A 200
// response redirects when it carries a Refresh header of the form
// "<seconds>; url=<target>".
func ComputeRedirect(reqURL *url.URL, resp *http.Response) (*url.URL, bool, error) {
	if IsRedirectStatus(resp.StatusCode) {
		return locationRedirect(reqURL, resp)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, nil
	}
	return refreshRedirect(reqURL, resp)
}

func locationRedirect(reqURL *url.URL, resp *http.Response) (*url.URL, bool, error) {
	loc := strings.TrimSpace(resp.Header.Get("Location"))
	if loc == "" {
		return nil, false, errors.Wrapf(errors.ErrMissingLocation, "status %d from %s", resp.StatusCode, reqURL)
	}
	target, err := resolveLocation(reqURL, loc)
	if err != nil {
		return nil, false, err
	}
	return target, true, nil
}

func refreshRedirect(reqURL *url.URL, resp *http.Response) (*url.URL, bool, error) {
	loc, ok := ParseRefresh(resp.Header.Get("Refresh"))
	if !ok {
		return nil, false, nil
	}
	target, err := resolveLocation(reqURL, loc)
	if err != nil {
		return nil, false, err
	}
	return target, true, nil
}

// ParseRefresh extracts the target of a Refresh header value such as
// `0; URL="https://example.com/"`. The "url" key is matched case
// insensitively and surrounding quotes are removed.
func ParseRefresh(value string) (string, bool) {
	_, rest, found := strings.Cut(value, ";")
	if !found {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if len(rest) < 4 || !strings.EqualFold(rest[:3], "url") {
		return "", false
	}
	rest = strings.TrimSpace(rest[3:])
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	target := strings.TrimSpace(rest[1:])
	target = strings.Trim(target, `"'`)
	if target == "" {
		return "", false
	}
	return target, true
}

func resolveLocation(base *url.URL, loc string) (*url.URL, error) {
	ref, err := url.Parse(loc)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidLocation, "%q: %v", loc, err)
	}
	if base == nil {
		return ref, nil
	}
	return base.ResolveReference(ref), nil
}
