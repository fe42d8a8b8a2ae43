// Package scrape finds the file to download in an HTML page: a regular
// expression link match, GitHub's lazily loaded release asset fragments, or
// the newest entry of a version-numbered directory listing.
package scrape

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/glorpus-work/freshfetch/internal/logger"
	"github.com/glorpus-work/freshfetch/pkg/version"
)

// Occurrence selects which match wins when a link pattern matches more than once.
type Occurrence int

// Occurrences.
const (
	First Occurrence = iota
	Last
)

func (o Occurrence) String() string {
	if o == Last {
		return "LAST"
	}
	return "FIRST"
}

// ParseOccurrence parses FIRST or LAST (case-insensitive); empty means FIRST.
func ParseOccurrence(s string) (Occurrence, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "FIRST":
		return First, nil
	case "LAST":
		return Last, nil
	default:
		return First, fmt.Errorf("unknown linkOccurrence %q", s)
	}
}

// FileInfo is a resolved download location. URL is always absolute.
type FileInfo struct {
	URL     *url.URL
	Version string
}

// VersionPlaceholder is substituted with the newest version in listing templates.
const VersionPlaceholder = "{version}"

var githubFragmentPattern = regexp.MustCompile(`src=(?:"([^"\s]*/expanded_assets/[^"\s]*)"|([^"\s>]+/expanded_assets/[^\s>]+))`)

// Page is an HTML document together with the URL it was loaded from.
type Page struct {
	Base *url.URL
	HTML string
}

// NewPage returns a page rooted at base.
func NewPage(base *url.URL, htmlText string) *Page {
	return &Page{Base: base, HTML: htmlText}
}

// ExtractLink scans the page for pattern. With First the first match wins,
// with Last the final one. Group 1 is the link, resolved against the page
// URL; group 2, when the pattern defines it, is the version. Patterns
// without a capture group never match.
func (p *Page) ExtractLink(pattern *regexp.Regexp, occurrence Occurrence) (FileInfo, bool) {
	if pattern == nil || pattern.NumSubexp() < 1 {
		logger.Debug("Link pattern has no capture group")
		return FileInfo{}, false
	}

	var match []string
	for _, m := range pattern.FindAllStringSubmatch(p.HTML, -1) {
		if m[1] == "" {
			continue
		}
		match = m
		if occurrence != Last {
			break
		}
	}
	if match == nil {
		logger.Debug("Link not found", logger.Fields{"page": p.Base.String()})
		return FileInfo{}, false
	}

	link := match[1]
	logger.Debug("Link found", logger.Fields{"link": link})

	u, err := p.Resolve(link)
	if err != nil {
		logger.Warn("Link cannot be parsed", logger.Fields{"link": link, "error": err.Error()})
		return FileInfo{}, false
	}

	info := FileInfo{URL: u}
	if len(match) > 2 && match[2] != "" {
		info.Version = match[2]
		logger.Debug("Version found in link", logger.Fields{"version": info.Version})
	}
	return info, true
}

// ExtractVersion returns group 1 of the first match of pattern.
func (p *Page) ExtractVersion(pattern *regexp.Regexp) (string, bool) {
	if pattern == nil || pattern.NumSubexp() < 1 {
		return "", false
	}
	m := pattern.FindStringSubmatch(p.HTML)
	if m == nil || m[1] == "" {
		logger.Debug("Version not found in page")
		return "", false
	}
	logger.Debug("Version found in page", logger.Fields{"version": m[1]})
	return m[1], true
}

// FindFile combines ExtractLink and ExtractVersion. A configured version
// pattern takes precedence over a version captured in the link.
func (p *Page) FindFile(linkPattern *regexp.Regexp, occurrence Occurrence, versionPattern *regexp.Regexp) (FileInfo, bool) {
	info, ok := p.ExtractLink(linkPattern, occurrence)
	if !ok {
		return FileInfo{}, false
	}
	if versionPattern != nil {
		info.Version, _ = p.ExtractVersion(versionPattern)
	}
	return info, true
}

// GitHubFragmentLinks returns the absolute URLs of the expanded_assets
// fragments referenced by the page, in document order.
func (p *Page) GitHubFragmentLinks() []*url.URL {
	var links []*url.URL
	for _, m := range githubFragmentPattern.FindAllStringSubmatch(p.HTML, -1) {
		link := m[1]
		if link == "" {
			link = m[2]
		}
		u, err := p.Resolve(link)
		if err != nil {
			logger.Warn("Page fragment link cannot be parsed", logger.Fields{"link": link})
			continue
		}
		logger.Debug("Page fragment link found", logger.Fields{"link": u.String()})
		links = append(links, u)
	}
	return links
}

// VersionListingFile finds the directory entries "<base path><version>/"
// of a release listing, picks the highest version and substitutes it into
// template, which is resolved against the page URL.
func (p *Page) VersionListingFile(template string) (FileInfo, bool) {
	pattern := regexp.MustCompile(regexp.QuoteMeta(p.Base.EscapedPath()) + `(\d+(?:\.\d+)*)/`)

	var candidates []*version.Ordinal
	for _, m := range pattern.FindAllStringSubmatch(p.HTML, -1) {
		o, err := version.Parse(m[1])
		if err != nil {
			continue
		}
		candidates = append(candidates, o)
	}

	latest := version.Max(candidates)
	if latest == nil {
		logger.Debug("Version not found in page", logger.Fields{"page": p.Base.String()})
		return FileInfo{}, false
	}
	logger.Debug("Latest version found in page", logger.Fields{"version": latest.String()})

	u, err := p.Resolve(strings.ReplaceAll(template, VersionPlaceholder, latest.String()))
	if err != nil {
		logger.Warn("Derived link cannot be parsed", logger.Fields{"template": template, "error": err.Error()})
		return FileInfo{}, false
	}
	return FileInfo{URL: u, Version: latest.String()}, true
}

// Resolve unescapes HTML entities in link and resolves it against the page URL.
func (p *Page) Resolve(link string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(html.UnescapeString(link)))
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() {
		return ref, nil
	}
	return p.Base.ResolveReference(ref), nil
}

// IsGitHubPage reports whether u points at github.com.
func IsGitHubPage(u *url.URL) bool {
	if u == nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || host == "www.github.com"
}
