// Package download fetches a single remote file with a conditional GET and
// commits it atomically to the local file system.
package download

import (
	"context"
	"net/url"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/glorpus-work/freshfetch/internal/logger"
	"github.com/glorpus-work/freshfetch/pkg/errors"
	"github.com/glorpus-work/freshfetch/pkg/fsutil"
	httpPkg "github.com/glorpus-work/freshfetch/pkg/http"
)

// Manager downloads files through an Executor onto a file system.
type Manager struct {
	client Executor
	fs     afero.Fs
}

// NewManager creates a manager. A nil fs means the OS file system.
func NewManager(client Executor, fs afero.Fs) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Manager{client: client, fs: fs}
}

// FetchToFile downloads u to dest. When dest exists and the download is
// conditional, only content newer than the local modification time is
// transferred.
func (m *Manager) FetchToFile(ctx context.Context, u *url.URL, dest string, opts Options) (Outcome, error) {
	if err := m.fs.MkdirAll(filepath.Dir(dest), fsutil.DirModeDefault); err != nil {
		return Outcome{}, errors.Transport(err, "could not create directory for "+dest)
	}

	reqOpts := httpPkg.Options{UserAgent: opts.UserAgent, SelfReferer: opts.SelfReferer}
	if opts.Conditional {
		modTime, exists, err := fsutil.ModTime(m.fs, dest)
		if err != nil {
			return Outcome{}, errors.Transport(err, "failed to stat "+dest)
		}
		if exists {
			reqOpts.IfModifiedSince = modTime
		}
	}

	logger.Debug("Fetching file", logger.Fields{
		"url":               u.String(),
		"dest":              dest,
		"if_modified_since": reqOpts.IfModifiedSince,
	})

	sink := NewSink(m.fs, u, dest)
	if err := m.client.Execute(ctx, u, reqOpts, sink); err != nil {
		return Outcome{}, err
	}
	return sink.Outcome(), nil
}
