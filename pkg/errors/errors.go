// Package errors holds the error kinds shared by freshfetch packages together
// with small wrapping helpers. Every failure reported for a single profile
// wraps exactly one of the four kind sentinels so callers can branch on it
// with errors.Is or KindOf. Config and profile file errors end the run
// before any profile is processed and carry no kind.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error kinds.
var (
	// ErrValidation marks a malformed or incomplete profile, detected before any network call.
	ErrValidation = fmt.Errorf("invalid profile")
	// ErrResolution marks a link or version that could not be found.
	ErrResolution = fmt.Errorf("resolution failed")
	// ErrTransport marks protocol, status and network failures.
	ErrTransport = fmt.Errorf("transport failed")
	// ErrContentIntegrity marks a response that failed the content sanity checks.
	ErrContentIntegrity = fmt.Errorf("content integrity check failed")
)

// Specific failures. Resolution, transport and content errors wrap one of
// the kinds above.
var (
	// Config errors.
	ErrEmptyConfigPath  = fmt.Errorf("config file path cannot be empty")
	ErrConfigParse      = fmt.Errorf("failed to parse config")
	ErrConfigValidation = fmt.Errorf("invalid configuration")

	// Profile errors.
	ErrProfileParse = fmt.Errorf("failed to parse profiles")

	// Resolution errors.
	ErrLinkNotFound       = fmt.Errorf("%w: file link not found", ErrResolution)
	ErrFragmentNotFound   = fmt.Errorf("%w: page fragment link not found", ErrResolution)
	ErrFragmentsExhausted = fmt.Errorf("%w: file link not found in any page fragment", ErrResolution)
	ErrVersionNotFound    = fmt.Errorf("%w: no version directory found", ErrResolution)
	ErrEmptyFileName      = fmt.Errorf("%w: file name cannot be derived from URL", ErrResolution)

	// Transport errors.
	ErrNotRedirected     = fmt.Errorf("%w: response is not a redirect", ErrTransport)
	ErrMissingLocation   = fmt.Errorf("%w: redirect without Location header", ErrTransport)
	ErrInvalidLocation   = fmt.Errorf("%w: malformed redirect location", ErrTransport)
	ErrTooManyRedirects  = fmt.Errorf("%w: too many redirects", ErrTransport)
	ErrUnsupportedCoding = fmt.Errorf("%w: unsupported content encoding", ErrTransport)

	// Content integrity errors.
	ErrLastModifiedMissing = fmt.Errorf("%w: remote file last modified time not available", ErrContentIntegrity)
	ErrFileNameMismatch    = fmt.Errorf("%w: mismatched file name in response header", ErrContentIntegrity)
	ErrSuspiciousSize      = fmt.Errorf("%w: new file is smaller than half of existing file", ErrContentIntegrity)
)

// Kind classifies an error for reporting.
type Kind int

// Error kinds in reporting order.
const (
	KindUnknown Kind = iota
	KindValidation
	KindResolution
	KindTransport
	KindContentIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindResolution:
		return "resolution"
	case KindTransport:
		return "transport"
	case KindContentIntegrity:
		return "content-integrity"
	default:
		return "unknown"
	}
}

// KindOf returns the kind wrapped by err, or KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case stderrors.Is(err, ErrValidation):
		return KindValidation
	case stderrors.Is(err, ErrResolution):
		return KindResolution
	case stderrors.Is(err, ErrContentIntegrity):
		return KindContentIntegrity
	case stderrors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindUnknown
	}
}

// StatusError reports an HTTP status the caller did not accept.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected status %s from %s", e.Status, e.URL)
	}
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// Unwrap makes every StatusError a transport error.
func (e *StatusError) Unwrap() error { return ErrTransport }

// Transport wraps a network or I/O failure as a transport error.
func Transport(err error, msg string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, ErrTransport) {
		return Wrap(err, msg)
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrTransport, err)
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is is errors.Is, re-exported so callers importing this package need not
// alias the standard library one.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As is errors.As.
func As(err error, target any) bool { return stderrors.As(err, target) }
