package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/freshfetch/pkg/errors"
)

func TestParseRefresh(t *testing.T) {
	tests := []struct {
		value  string
		want   string
		wantOK bool
	}{
		{value: "0; url=https://example.com/a", want: "https://example.com/a", wantOK: true},
		{value: "5;URL=/next", want: "/next", wantOK: true},
		{value: `0; Url="/quoted"`, want: "/quoted", wantOK: true},
		{value: "0; url = '/spaced'", want: "/spaced", wantOK: true},
		{value: "30", wantOK: false},
		{value: "0; target=/x", wantOK: false},
		{value: "0; url=", wantOK: false},
		{value: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := ParseRefresh(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeRedirect(t *testing.T) {
	base, err := url.Parse("https://example.com/dir/page")
	require.NoError(t, err)

	response := func(code int, header map[string]string) *http.Response {
		h := http.Header{}
		for k, v := range header {
			h.Set(k, v)
		}
		return &http.Response{StatusCode: code, Header: h}
	}

	tests := []struct {
		name    string
		resp    *http.Response
		want    string
		wantOK  bool
		wantErr error
	}{
		{
			name:   "found relative",
			resp:   response(http.StatusFound, map[string]string{"Location": "file.zip"}),
			want:   "https://example.com/dir/file.zip",
			wantOK: true,
		},
		{
			name:   "see other absolute",
			resp:   response(http.StatusSeeOther, map[string]string{"Location": "https://cdn.example.org/x"}),
			want:   "https://cdn.example.org/x",
			wantOK: true,
		},
		{
			name:   "refresh on 200",
			resp:   response(http.StatusOK, map[string]string{"Refresh": "0; URL=/other"}),
			want:   "https://example.com/other",
			wantOK: true,
		},
		{
			name:   "refresh ignored on 404",
			resp:   response(http.StatusNotFound, map[string]string{"Refresh": "0; url=/other"}),
			wantOK: false,
		},
		{
			name:   "plain 200",
			resp:   response(http.StatusOK, nil),
			wantOK: false,
		},
		{
			name:   "not modified",
			resp:   response(http.StatusNotModified, map[string]string{"Location": "/x"}),
			wantOK: false,
		},
		{
			name:    "missing location",
			resp:    response(http.StatusMovedPermanently, nil),
			wantErr: errors.ErrMissingLocation,
		},
		{
			name:    "malformed location",
			resp:    response(http.StatusTemporaryRedirect, map[string]string{"Location": "http://[::1"}),
			wantErr: errors.ErrInvalidLocation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ComputeRedirect(base, tt.resp)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.String())
			} else {
				assert.Nil(t, got)
			}
		})
	}
}
