//go:generate mockgen -destination=./mocks/orchestrator.go . PageFetcher,FileFetcher

package orchestrator

import (
	"context"
	"net/url"
	"time"

	"github.com/glorpus-work/freshfetch/pkg/download"
	httpPkg "github.com/glorpus-work/freshfetch/pkg/http"
	"github.com/glorpus-work/freshfetch/pkg/profile"
)

// PageFetcher is the subset of the HTTP client used to resolve file links.
type PageFetcher interface {
	FetchText(ctx context.Context, u *url.URL, opts httpPkg.Options) (string, error)
	FetchRedirectTarget(ctx context.Context, u *url.URL, opts httpPkg.Options) (*url.URL, error)
}

// FileFetcher downloads a resolved file.
type FileFetcher interface {
	FetchToFile(ctx context.Context, u *url.URL, dest string, opts download.Options) (download.Outcome, error)
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // resolving|downloading|done|skipped|error
	ID    string // profile name
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Status is the tri-state outcome of one profile.
type Status int

// Profile outcomes.
const (
	StatusFetched Status = iota + 1
	StatusUnchanged
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFetched:
		return "fetched"
	case StatusUnchanged:
		return "unchanged"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports what happened to one profile. Err is set exactly when
// Status is StatusFailed.
type Result struct {
	Profile      *profile.Profile
	Status       Status
	URL          *url.URL
	Version      string
	Path         string
	LastModified time.Time
	Err          error
}
