package download

import (
	"context"
	"net/url"
	"time"

	httpPkg "github.com/glorpus-work/freshfetch/pkg/http"
)

// Executor performs one HTTP exchange and feeds the response to a consumer.
// *http.Client satisfies it.
type Executor interface {
	Execute(ctx context.Context, u *url.URL, opts httpPkg.Options, consumer httpPkg.Consumer) error
}

// Status is the outcome of a conditional download.
type Status int

const (
	// StatusFetched means new content was written to the destination.
	StatusFetched Status = iota + 1
	// StatusUnchanged means the remote file is not newer than the local copy.
	StatusUnchanged
)

func (s Status) String() string {
	switch s {
	case StatusFetched:
		return "fetched"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Outcome describes a completed download.
type Outcome struct {
	Status Status
	Path   string
	// LastModified is the remote modification time for a fetched file and
	// the local one for an unchanged file.
	LastModified time.Time
}

// Options control one download.
type Options struct {
	UserAgent   httpPkg.Identity
	SelfReferer bool
	// Conditional sends If-Modified-Since with the modification time of an
	// existing destination file.
	Conditional bool
}
