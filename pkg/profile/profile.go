// Package profile reads download profiles and checks them before any
// network traffic happens.
package profile

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/glorpus-work/freshfetch/pkg/errors"
	"github.com/glorpus-work/freshfetch/pkg/scrape"
)

// Mode selects how the file URL of a profile is resolved.
type Mode string

// Resolution modes.
const (
	ModeDirect         Mode = "DIRECT"
	ModeRedirect       Mode = "REDIRECT"
	ModePageScrape     Mode = "PAGE_SCRAPE"
	ModeGitHub         Mode = "GITHUB"
	ModeVersionListing Mode = "VERSION_LISTING"
)

// VersionPlaceholder is replaced by the winning version in a FileTemplate.
const VersionPlaceholder = scrape.VersionPlaceholder

// UserAgent selects one of the configured client identities.
type UserAgent string

// Identities.
const (
	UserAgentPrimary   UserAgent = "primary"
	UserAgentAlternate UserAgent = "alternate"
)

// Referer controls the Referer request header.
type Referer string

// Referer modes.
const (
	RefererNone Referer = "none"
	RefererSelf Referer = "self"
)

// RequestOptions tune the requests issued for one profile.
type RequestOptions struct {
	UserAgent UserAgent
	Referer   Referer
	// Conditional sends If-Modified-Since when the local file exists.
	Conditional bool
}

// DefaultRequestOptions returns the options used when a profile sets none.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		UserAgent:   UserAgentPrimary,
		Referer:     RefererNone,
		Conditional: true,
	}
}

// Profile is one configured download target. Profiles are not modified
// after Load returns them.
type Profile struct {
	// Index is the position of the profile in its file.
	Index int

	Name             string
	Mode             Mode
	FileURL          *url.URL
	PageURL          *url.URL
	LinkPattern      *regexp.Regexp
	LinkOccurrence   scrape.Occurrence
	VersionPattern   *regexp.Regexp
	FileTemplate     string
	RequestOptions   RequestOptions
	OutputDirectory  string
	SkipIfFileExists bool

	// problems collects conversion failures found while decoding.
	problems []string
}

// DisplayName returns the profile name, or its position when unnamed.
func (p *Profile) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return fmt.Sprintf("profile[%d]", p.Index)
}

// Validate reports every problem of the profile as one validation error.
func (p *Profile) Validate() error {
	problems := append([]string(nil), p.problems...)

	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "profile must contain a name")
	}

	if p.OutputDirectory == "" {
		problems = append(problems, "profile must contain an outputDirectory")
	} else if !filepath.IsAbs(p.OutputDirectory) {
		problems = append(problems, fmt.Sprintf("outputDirectory must be absolute: %s", p.OutputDirectory))
	}

	switch p.Mode {
	case ModeDirect, ModeRedirect:
		if p.FileURL == nil {
			problems = append(problems, fmt.Sprintf("%s profile must contain a fileUrl", p.Mode))
		}
	case ModePageScrape, ModeGitHub:
		if p.PageURL == nil {
			problems = append(problems, fmt.Sprintf("%s profile must contain a pageUrl", p.Mode))
		}
		if p.LinkPattern == nil {
			problems = append(problems, fmt.Sprintf("%s profile must contain a linkPattern", p.Mode))
		}
	case ModeVersionListing:
		if p.PageURL == nil {
			problems = append(problems, fmt.Sprintf("%s profile must contain a pageUrl", p.Mode))
		}
		if !strings.Contains(p.FileTemplate, VersionPlaceholder) {
			problems = append(problems, fmt.Sprintf("%s profile must contain a fileTemplate with %s", p.Mode, VersionPlaceholder))
		}
	case "":
		// reported by the decoder
	default:
		problems = append(problems, fmt.Sprintf("unsupported profile type: %s", p.Mode))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: profile[%d]: %s", errors.ErrValidation, p.Index, strings.Join(problems, "; "))
}

// ParseMode parses a resolution mode name. Legacy names STANDARD and
// MOZILLA are accepted.
func ParseMode(s string) (Mode, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch name {
	case string(ModeDirect):
		return ModeDirect, nil
	case string(ModeRedirect):
		return ModeRedirect, nil
	case string(ModePageScrape), "STANDARD", "PAGE":
		return ModePageScrape, nil
	case string(ModeGitHub):
		return ModeGitHub, nil
	case string(ModeVersionListing), "MOZILLA":
		return ModeVersionListing, nil
	default:
		return "", fmt.Errorf("unknown resolution mode %q", s)
	}
}
