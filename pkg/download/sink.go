package download

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/glorpus-work/freshfetch/internal/logger"
	"github.com/glorpus-work/freshfetch/pkg/errors"
	"github.com/glorpus-work/freshfetch/pkg/fsutil"
	httpPkg "github.com/glorpus-work/freshfetch/pkg/http"
)

const encodedSuffix = ".encoded"

// Sink streams a 200 response into "<dest>.partial" and moves it over dest
// once the content passed the integrity checks. A 304 response leaves dest
// alone. dest is only replaced by a complete, validated file.
type Sink struct {
	fs     afero.Fs
	target *url.URL
	dest   string

	file         afero.File
	writePath    string
	coding       string
	lastModified time.Time
	committed    bool
	outcome      Outcome
}

// NewSink creates a sink writing the response for target to dest.
func NewSink(fs afero.Fs, target *url.URL, dest string) *Sink {
	return &Sink{fs: fs, target: target, dest: dest}
}

// Start implements http.Consumer.
func (s *Sink) Start(resp *http.Response) (httpPkg.Action, error) {
	switch resp.StatusCode {
	case http.StatusNotModified:
		modTime, _, _ := fsutil.ModTime(s.fs, s.dest)
		s.outcome = Outcome{Status: StatusUnchanged, Path: s.dest, LastModified: modTime}
		return httpPkg.Skip, nil
	case http.StatusOK:
	default:
		return httpPkg.Skip, httpPkg.NewStatusError(resp)
	}

	lastModified, err := http.ParseTime(resp.Header.Get("Last-Modified"))
	if err != nil {
		return httpPkg.Skip, errors.Wrapf(errors.ErrLastModifiedMissing, "%s", s.target)
	}
	s.lastModified = lastModified

	if err := s.checkDisposition(resp.Header.Get("Content-Disposition")); err != nil {
		return httpPkg.Skip, err
	}

	s.writePath = fsutil.PartialPath(s.dest)
	if coding := resp.Header.Get("Content-Encoding"); httpPkg.IsDecodable(coding) {
		s.coding = coding
		s.writePath += encodedSuffix
	}

	f, err := s.fs.OpenFile(s.writePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return httpPkg.Skip, errors.Transport(err, "failed to create "+s.writePath)
	}
	s.file = f
	return httpPkg.Read, nil
}

// checkDisposition rejects a response whose Content-Disposition names a
// different file than the requested URL.
func (s *Sink) checkDisposition(header string) error {
	name := dispositionFileName(header)
	if name == "" {
		return nil
	}
	expected := fsutil.FileName(s.target)
	if path.Base(name) != expected {
		return errors.Wrapf(errors.ErrFileNameMismatch, "expected %q, got %q", expected, name)
	}
	return nil
}

// dispositionFileName returns the filename parameter of a Content-Disposition
// header. Headers the strict MIME parser rejects are scanned leniently, one
// ";"-separated parameter at a time.
func dispositionFileName(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		return params["filename"]
	}

	logger.Debug("Scanning malformed Content-Disposition", logger.Fields{"value": header})
	var plain, extended string
	for _, param := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "filename":
			if plain == "" {
				plain = value
			}
		case "filename*":
			if extended == "" {
				extended = decodeExtValue(value)
			}
		}
	}
	if extended != "" {
		return extended
	}
	return plain
}

// decodeExtValue decodes an RFC 5987 value such as UTF-8''a%20b.zip. Values
// that cannot be unescaped are returned as they are.
func decodeExtValue(value string) string {
	if _, rest, ok := strings.Cut(value, "''"); ok {
		value = rest
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

// Data implements http.Consumer.
func (s *Sink) Data(p []byte) error {
	if _, err := s.file.Write(p); err != nil {
		return errors.Transport(err, "failed to write "+s.writePath)
	}
	return nil
}

// Finish implements http.Consumer.
func (s *Sink) Finish() error {
	if s.file == nil {
		return nil
	}
	if err := s.file.Close(); err != nil {
		s.file = nil
		return errors.Transport(err, "failed to close "+s.writePath)
	}
	s.file = nil

	partial := fsutil.PartialPath(s.dest)
	if s.coding != "" {
		if err := s.decode(s.writePath, partial); err != nil {
			return err
		}
	}

	if err := s.checkSize(partial); err != nil {
		return err
	}

	if err := s.fs.Chtimes(partial, s.lastModified, s.lastModified); err != nil {
		return errors.Transport(err, "failed to set modification time on "+partial)
	}
	if err := s.fs.Rename(partial, s.dest); err != nil {
		return errors.Transport(err, "failed to move "+partial+" into place")
	}

	s.committed = true
	s.outcome = Outcome{Status: StatusFetched, Path: s.dest, LastModified: s.lastModified}
	return nil
}

func (s *Sink) decode(encoded, partial string) error {
	in, err := s.fs.Open(encoded)
	if err != nil {
		return errors.Transport(err, "failed to open "+encoded)
	}
	defer func() { _ = in.Close() }()

	rc, err := httpPkg.DecodeReader(s.coding, in)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := s.fs.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Transport(err, "failed to create "+partial)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return errors.Transport(err, "failed to decode "+s.coding+" content")
	}
	if err := out.Close(); err != nil {
		return errors.Transport(err, "failed to close "+partial)
	}

	logger.DebugfWithFields(logger.Fields{"path": partial}, "Decoded %s response body", s.coding)
	return nil
}

// checkSize rejects content that shrank to less than half of the existing
// file, which usually means an error page was served instead of the file.
func (s *Sink) checkSize(partial string) error {
	oldSize, exists, err := fsutil.Size(s.fs, s.dest)
	if err != nil {
		return errors.Transport(err, "failed to stat "+s.dest)
	}
	if !exists {
		return nil
	}
	newSize, _, err := fsutil.Size(s.fs, partial)
	if err != nil {
		return errors.Transport(err, "failed to stat "+partial)
	}
	if newSize*2 < oldSize {
		return errors.Wrapf(errors.ErrSuspiciousSize, "%d bytes replacing %d bytes", newSize, oldSize)
	}
	return nil
}

// Close implements http.Consumer. It removes leftover temporary files
// unless the download was committed.
func (s *Sink) Close() error {
	var closeErr error
	if s.file != nil {
		closeErr = s.file.Close()
		s.file = nil
	}
	if s.coding != "" {
		s.remove(fsutil.PartialPath(s.dest) + encodedSuffix)
	}
	if !s.committed {
		s.remove(fsutil.PartialPath(s.dest))
	}
	return closeErr
}

func (s *Sink) remove(p string) {
	if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove temporary file", logger.Fields{"path": p, "error": err.Error()})
	}
}

// Outcome returns the result after a successful exchange.
func (s *Sink) Outcome() Outcome { return s.outcome }
