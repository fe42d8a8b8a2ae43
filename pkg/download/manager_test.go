package download

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/freshfetch/pkg/config"
	"github.com/glorpus-work/freshfetch/pkg/errors"
	"github.com/glorpus-work/freshfetch/pkg/fsutil"
	httpPkg "github.com/glorpus-work/freshfetch/pkg/http"
	"github.com/glorpus-work/freshfetch/test/testutil"
)

const dest = "/downloads/tool.zip"

var modTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, afero.Fs) {
	t.Helper()
	cfg := config.DefaultConfig().HTTP
	cfg.Timeout = 5 * time.Second
	client := httpPkg.NewClient(cfg)
	t.Cleanup(client.Close)
	fs := afero.NewMemMapFs()
	return NewManager(client, fs), fs
}

func assertNoPartial(t *testing.T, fs afero.Fs) {
	t.Helper()
	for _, p := range []string{fsutil.PartialPath(dest), fsutil.PartialPath(dest) + encodedSuffix} {
		exists, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.False(t, exists, "%s must not be left behind", p)
	}
}

func readFile(t *testing.T, fs afero.Fs) string {
	t.Helper()
	data, err := afero.ReadFile(fs, dest)
	require.NoError(t, err)
	return string(data)
}

func TestFetchToFile_ConditionalRoundTrip(t *testing.T) {
	site := testutil.NewSite(t)
	site.AddFile("/files/tool.zip", []byte("version one"), modTime)
	m, fs := newTestManager(t)
	u := site.URLFor(t, "/files/tool.zip")
	opts := Options{Conditional: true}

	out, err := m.FetchToFile(context.Background(), u, dest, opts)
	require.NoError(t, err)
	assert.Equal(t, StatusFetched, out.Status)
	assert.Equal(t, dest, out.Path)
	assert.True(t, modTime.Equal(out.LastModified))
	assert.Equal(t, "version one", readFile(t, fs))
	assert.Empty(t, site.LastRequest().Header.Get("If-Modified-Since"))

	local, exists, err := fsutil.ModTime(fs, dest)
	require.NoError(t, err)
	require.True(t, exists)
	assert.True(t, modTime.Equal(local), "local mod time must match Last-Modified")
	assertNoPartial(t, fs)

	out, err = m.FetchToFile(context.Background(), u, dest, opts)
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, out.Status)
	assert.Equal(t, modTime.Format(http.TimeFormat), site.LastRequest().Header.Get("If-Modified-Since"))
	assert.Equal(t, "version one", readFile(t, fs))

	newer := modTime.Add(time.Hour)
	site.AddFile("/files/tool.zip", []byte("version two"), newer)
	out, err = m.FetchToFile(context.Background(), u, dest, opts)
	require.NoError(t, err)
	assert.Equal(t, StatusFetched, out.Status)
	assert.True(t, newer.Equal(out.LastModified))
	assert.Equal(t, "version two", readFile(t, fs))
	assertNoPartial(t, fs)
}

func TestFetchToFile_Unconditional(t *testing.T) {
	site := testutil.NewSite(t)
	site.AddFile("/files/tool.zip", []byte("content"), modTime)
	m, fs := newTestManager(t)
	u := site.URLFor(t, "/files/tool.zip")

	for i := 0; i < 2; i++ {
		out, err := m.FetchToFile(context.Background(), u, dest, Options{})
		require.NoError(t, err)
		assert.Equal(t, StatusFetched, out.Status)
		assert.Empty(t, site.LastRequest().Header.Get("If-Modified-Since"))
	}
	assert.Equal(t, "content", readFile(t, fs))
}

func TestFetchToFile_SizeCheck(t *testing.T) {
	tests := []struct {
		name     string
		newSize  int
		wantErr  error
		replaced bool
	}{
		{name: "shrunk below half", newSize: 499, wantErr: errors.ErrSuspiciousSize},
		{name: "exactly half", newSize: 500, replaced: true},
		{name: "grown", newSize: 1500, replaced: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := testutil.NewSite(t)
			site.AddFile("/files/tool.zip", bytes.Repeat([]byte("n"), tt.newSize), modTime)
			m, fs := newTestManager(t)

			old := strings.Repeat("o", 1000)
			require.NoError(t, afero.WriteFile(fs, dest, []byte(old), fsutil.FileModeDefault))
			oldTime := modTime.Add(-24 * time.Hour)
			require.NoError(t, fs.Chtimes(dest, oldTime, oldTime))

			out, err := m.FetchToFile(context.Background(), site.URLFor(t, "/files/tool.zip"), dest, Options{Conditional: true})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, errors.KindContentIntegrity, errors.KindOf(err))
				assert.Equal(t, old, readFile(t, fs), "existing file must stay untouched")
				local, _, err := fsutil.ModTime(fs, dest)
				require.NoError(t, err)
				assert.True(t, oldTime.Equal(local))
			} else {
				require.NoError(t, err)
				assert.Equal(t, StatusFetched, out.Status)
				assert.Len(t, readFile(t, fs), tt.newSize)
			}
			assertNoPartial(t, fs)
		})
	}
}

func TestFetchToFile_MissingLastModified(t *testing.T) {
	site := testutil.NewSite(t)
	site.Handle("/files/tool.zip", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("no date"))
	})
	m, fs := newTestManager(t)

	_, err := m.FetchToFile(context.Background(), site.URLFor(t, "/files/tool.zip"), dest, Options{Conditional: true})
	require.ErrorIs(t, err, errors.ErrLastModifiedMissing)
	assert.Equal(t, errors.KindContentIntegrity, errors.KindOf(err))

	exists, err := afero.Exists(fs, dest)
	require.NoError(t, err)
	assert.False(t, exists)
	assertNoPartial(t, fs)
}

func TestFetchToFile_ContentDisposition(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "matching name", header: `attachment; filename="tool.zip"`},
		{name: "no filename", header: "inline"},
		{name: "different name", header: `attachment; filename="error.html"`, wantErr: errors.ErrFileNameMismatch},
		{name: "encoded different name", header: `attachment; filename*=UTF-8''other%20tool.zip`, wantErr: errors.ErrFileNameMismatch},
		{name: "unquoted name with space", header: `attachment; filename=error page.html`, wantErr: errors.ErrFileNameMismatch},
		{name: "unquoted matching name in malformed header", header: `attachment; filename=tool.zip; size=3 bytes`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := testutil.NewSite(t)
			site.SetFile("/files/tool.zip", testutil.File{
				Content:      []byte("zip"),
				LastModified: modTime,
				Header:       http.Header{"Content-Disposition": []string{tt.header}},
			})
			m, fs := newTestManager(t)

			_, err := m.FetchToFile(context.Background(), site.URLFor(t, "/files/tool.zip"), dest, Options{})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				exists, _ := afero.Exists(fs, dest)
				assert.False(t, exists)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "zip", readFile(t, fs))
			}
			assertNoPartial(t, fs)
		})
	}
}

func TestFetchToFile_DecodesGzip(t *testing.T) {
	const payload = "uncompressed installer bytes"
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(payload))
	require.NoError(t, zw.Close())

	site := testutil.NewSite(t)
	site.Handle("/files/tool.zip", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Last-Modified", modTime.Format(http.TimeFormat))
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	})
	m, fs := newTestManager(t)

	out, err := m.FetchToFile(context.Background(), site.URLFor(t, "/files/tool.zip"), dest, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusFetched, out.Status)
	assert.Equal(t, payload, readFile(t, fs))
	assertNoPartial(t, fs)
}

func TestFetchToFile_Failures(t *testing.T) {
	site := testutil.NewSite(t)
	site.Handle("/files/truncated.zip", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Last-Modified", modTime.Format(http.TimeFormat))
		w.Header().Set("Content-Length", "4096")
		_, _ = w.Write([]byte("short"))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	})
	m, fs := newTestManager(t)
	require.NoError(t, afero.WriteFile(fs, dest, []byte("previous"), fsutil.FileModeDefault))

	_, err := m.FetchToFile(context.Background(), site.URLFor(t, "/files/missing.zip"), dest, Options{})
	var statusErr *errors.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)

	requestsBefore := len(site.Requests())
	_, err = m.FetchToFile(context.Background(), site.URLFor(t, "/files/truncated.zip"), dest, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
	assert.Len(t, site.Requests(), requestsBefore+1, "a transfer that started streaming must not be retried")

	assert.Equal(t, "previous", readFile(t, fs))
	assertNoPartial(t, fs)
}

func TestFetchToFile_CreatesOutputDirectory(t *testing.T) {
	site := testutil.NewSite(t)
	site.AddFile("/tool.zip", []byte("x"), modTime)
	m, fs := newTestManager(t)

	target := "/nested/out/dir/tool.zip"
	_, err := m.FetchToFile(context.Background(), site.URLFor(t, "/tool.zip"), target, Options{})
	require.NoError(t, err)

	isDir, err := afero.IsDir(fs, "/nested/out/dir")
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestSink_Start(t *testing.T) {
	fs := afero.NewMemMapFs()
	u := testutil.NewSite(t).URLFor(t, "/tool.zip")

	sink := NewSink(fs, u, dest)
	action, err := sink.Start(&http.Response{StatusCode: http.StatusNotModified, Header: http.Header{}})
	require.NoError(t, err)
	assert.Equal(t, httpPkg.Skip, action)
	assert.Equal(t, StatusUnchanged, sink.Outcome().Status)
	require.NoError(t, sink.Close())

	sink = NewSink(fs, u, dest)
	req, err := http.NewRequest(http.MethodGet, u.String(), http.NoBody)
	require.NoError(t, err)
	_, err = sink.Start(&http.Response{StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error", Header: http.Header{}, Request: req})
	require.Error(t, err)
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
	assert.Contains(t, err.Error(), u.String())
	require.NoError(t, sink.Close())
}

func TestFetchToFile_LocalFileSystemErrors(t *testing.T) {
	site := testutil.NewSite(t)
	site.AddFile("/files/tool.zip", []byte("zip"), modTime)
	cfg := config.DefaultConfig().HTTP
	client := httpPkg.NewClient(cfg)
	t.Cleanup(client.Close)
	m := NewManager(client, afero.NewReadOnlyFs(afero.NewMemMapFs()))

	_, err := m.FetchToFile(context.Background(), site.URLFor(t, "/files/tool.zip"), dest, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
}

func TestSink_StartCreateFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/downloads", fsutil.DirModeDefault))
	u := testutil.NewSite(t).URLFor(t, "/tool.zip")
	sink := NewSink(afero.NewReadOnlyFs(base), u, dest)

	header := http.Header{"Last-Modified": []string{modTime.Format(http.TimeFormat)}}
	action, err := sink.Start(&http.Response{StatusCode: http.StatusOK, Header: header})
	require.Error(t, err)
	assert.Equal(t, httpPkg.Skip, action)
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
	require.NoError(t, sink.Close())
}

func TestDispositionFileName(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: "inline", want: ""},
		{header: `attachment; filename="tool.zip"`, want: "tool.zip"},
		{header: `attachment; filename=error page.html`, want: "error page.html"},
		{header: `attachment; filename="a b.zip"; filename*=UTF-8''c%20d.zip; x=1 2`, want: "c d.zip"},
		{header: `attachment; FILENAME=tool.zip; junk`, want: "tool.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, dispositionFileName(tt.header))
		})
	}
}
