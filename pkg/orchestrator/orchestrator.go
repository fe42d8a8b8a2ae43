// Package orchestrator resolves the file location of each profile and
// downloads it, reporting one Result per profile.
package orchestrator

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/glorpus-work/freshfetch/internal/logger"
	"github.com/glorpus-work/freshfetch/pkg/download"
	"github.com/glorpus-work/freshfetch/pkg/errors"
	"github.com/glorpus-work/freshfetch/pkg/fsutil"
	httpPkg "github.com/glorpus-work/freshfetch/pkg/http"
	"github.com/glorpus-work/freshfetch/pkg/profile"
	"github.com/glorpus-work/freshfetch/pkg/scrape"
)

// Orchestrator ties link resolution and downloading together.
type Orchestrator struct {
	Pages PageFetcher
	Files FileFetcher
	// Fs is consulted for SkipIfFileExists. Nil means the OS file system.
	Fs    afero.Fs
	Hooks Hooks // Hooks for progress and event notifications
}

// New creates an orchestrator.
func New(pages PageFetcher, files FileFetcher, fs afero.Fs) *Orchestrator {
	return &Orchestrator{Pages: pages, Files: files, Fs: fs}
}

// Run processes the profiles one after another. A failing profile never
// stops the run.
func (o *Orchestrator) Run(ctx context.Context, profiles []*profile.Profile) []Result {
	results := make([]Result, 0, len(profiles))
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			results = append(results, o.fail(p, errors.Transport(err, "run interrupted")))
			continue
		}
		results = append(results, o.Process(ctx, p))
	}
	return results
}

// Process resolves and downloads a single profile.
func (o *Orchestrator) Process(ctx context.Context, p *profile.Profile) Result {
	if err := p.Validate(); err != nil {
		return o.fail(p, err)
	}

	o.emit(Event{Phase: "resolving", ID: p.DisplayName(), Msg: string(p.Mode)})
	info, err := o.resolve(ctx, p)
	if err != nil {
		return o.fail(p, err)
	}

	name := fsutil.FileName(info.URL)
	if name == "" {
		return o.fail(p, errors.Wrapf(errors.ErrEmptyFileName, "%s", info.URL))
	}
	name = fsutil.UpdateFileName(name, info.Version)
	dest := filepath.Join(p.OutputDirectory, name)

	res := Result{Profile: p, URL: info.URL, Version: info.Version, Path: dest}

	if p.SkipIfFileExists && fsutil.Exists(o.fs(), dest) {
		res.Status = StatusUnchanged
		if modTime, ok, _ := fsutil.ModTime(o.fs(), dest); ok {
			res.LastModified = modTime
		}
		logger.Info("Skipping existing file", logger.Fields{"profile": p.DisplayName(), "path": dest})
		o.emit(Event{Phase: "skipped", ID: p.DisplayName(), Msg: dest})
		return res
	}

	o.emit(Event{Phase: "downloading", ID: p.DisplayName(), Msg: info.URL.String()})
	outcome, err := o.Files.FetchToFile(ctx, info.URL, dest, downloadOptions(p.RequestOptions))
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		o.report(res)
		return res
	}

	res.LastModified = outcome.LastModified
	switch outcome.Status {
	case download.StatusFetched:
		res.Status = StatusFetched
	default:
		res.Status = StatusUnchanged
	}
	o.report(res)
	return res
}

func (o *Orchestrator) resolve(ctx context.Context, p *profile.Profile) (scrape.FileInfo, error) {
	opts := requestOptions(p.RequestOptions)

	switch p.Mode {
	case profile.ModeDirect:
		return scrape.FileInfo{URL: p.FileURL}, nil

	case profile.ModeRedirect:
		target, err := o.Pages.FetchRedirectTarget(ctx, p.FileURL, opts)
		if err != nil {
			return scrape.FileInfo{}, err
		}
		logger.Debug("Resolved redirect", logger.Fields{"profile": p.DisplayName(), "location": target.String()})
		return scrape.FileInfo{URL: target}, nil

	case profile.ModePageScrape, profile.ModeGitHub:
		return o.scrapePage(ctx, p, opts)

	case profile.ModeVersionListing:
		html, err := o.Pages.FetchText(ctx, p.PageURL, opts)
		if err != nil {
			return scrape.FileInfo{}, err
		}
		info, ok := scrape.NewPage(p.PageURL, html).VersionListingFile(p.FileTemplate)
		if !ok {
			return scrape.FileInfo{}, errors.Wrapf(errors.ErrVersionNotFound, "%s", p.PageURL)
		}
		return info, nil

	default:
		return scrape.FileInfo{}, errors.Wrapf(errors.ErrValidation, "unsupported profile type %q", p.Mode)
	}
}

func (o *Orchestrator) scrapePage(ctx context.Context, p *profile.Profile, opts httpPkg.Options) (scrape.FileInfo, error) {
	html, err := o.Pages.FetchText(ctx, p.PageURL, opts)
	if err != nil {
		return scrape.FileInfo{}, err
	}

	page := scrape.NewPage(p.PageURL, html)
	if info, ok := page.FindFile(p.LinkPattern, p.LinkOccurrence, p.VersionPattern); ok {
		return info, nil
	}

	if p.Mode != profile.ModeGitHub && !scrape.IsGitHubPage(p.PageURL) {
		return scrape.FileInfo{}, errors.Wrapf(errors.ErrLinkNotFound, "%s", p.PageURL)
	}
	return o.searchFragments(ctx, p, page, opts)
}

// searchFragments looks for the file link in the lazily loaded release
// fragments of a GitHub page, in document order. Fragment links are
// resolved against the page URL.
func (o *Orchestrator) searchFragments(ctx context.Context, p *profile.Profile, page *scrape.Page, opts httpPkg.Options) (scrape.FileInfo, error) {
	fragments := page.GitHubFragmentLinks()
	if len(fragments) == 0 {
		return scrape.FileInfo{}, errors.Wrapf(errors.ErrFragmentNotFound, "%s", p.PageURL)
	}

	for _, fragmentURL := range fragments {
		logger.Debug("Searching page fragment", logger.Fields{"profile": p.DisplayName(), "fragment": fragmentURL.String()})
		html, err := o.Pages.FetchText(ctx, fragmentURL, opts)
		if err != nil {
			return scrape.FileInfo{}, err
		}
		fragment := scrape.NewPage(p.PageURL, html)
		if info, ok := fragment.FindFile(p.LinkPattern, p.LinkOccurrence, p.VersionPattern); ok {
			return info, nil
		}
	}

	return scrape.FileInfo{}, errors.Wrapf(errors.ErrFragmentsExhausted, "%d fragments of %s", len(fragments), p.PageURL)
}

func (o *Orchestrator) fail(p *profile.Profile, err error) Result {
	res := Result{Profile: p, Status: StatusFailed, Err: err}
	o.report(res)
	return res
}

func (o *Orchestrator) report(res Result) {
	name := res.Profile.DisplayName()
	switch res.Status {
	case StatusFetched:
		logger.Success("Downloaded file", logger.Fields{"profile": name, "path": res.Path, "last_modified": res.LastModified})
		o.emit(Event{Phase: "done", ID: name, Msg: res.Path})
	case StatusUnchanged:
		logger.Info("File is up to date", logger.Fields{"profile": name, "path": res.Path})
		o.emit(Event{Phase: "done", ID: name, Msg: res.Path})
	case StatusFailed:
		logger.Error("Profile failed", logger.Fields{"profile": name, "kind": errors.KindOf(res.Err).String(), "error": res.Err.Error()})
		o.emit(Event{Phase: "error", ID: name, Msg: res.Err.Error()})
	}
}

func (o *Orchestrator) emit(e Event) {
	if o.Hooks.OnEvent != nil {
		o.Hooks.OnEvent(e)
	}
}

func (o *Orchestrator) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}

func requestOptions(ro profile.RequestOptions) httpPkg.Options {
	opts := httpPkg.Options{SelfReferer: ro.Referer == profile.RefererSelf}
	if ro.UserAgent == profile.UserAgentAlternate {
		opts.UserAgent = httpPkg.IdentityAlternate
	}
	return opts
}

func downloadOptions(ro profile.RequestOptions) download.Options {
	opts := requestOptions(ro)
	return download.Options{
		UserAgent:   opts.UserAgent,
		SelfReferer: opts.SelfReferer,
		Conditional: ro.Conditional,
	}
}
