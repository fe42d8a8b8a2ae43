// Package fsutil provides file naming and file system helpers for downloads.
package fsutil

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// FileName returns the last segment of the URL path, or "" when the path
// is empty or ends with a slash.
func FileName(u *url.URL) string {
	if u == nil {
		return ""
	}
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// UpdateFileName inserts version before the extension of name:
// "app.exe" becomes "app-1.1.exe" and "app" becomes "app-1.1". The name is
// returned unchanged when version is empty or already part of it.
func UpdateFileName(name, version string) string {
	if strings.TrimSpace(version) == "" || strings.Contains(name, version) {
		return name
	}
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name + "-" + version
	}
	return name[:i] + "-" + version + name[i:]
}

// PartialPath returns the sibling path used while dest is being written.
func PartialPath(dest string) string {
	return dest + PartialSuffix
}

// ModTime returns the modification time of path. The boolean is false when
// the file does not exist.
func ModTime(fs afero.Fs, path string) (time.Time, bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return info.ModTime(), true, nil
}

// Exists reports whether a regular file exists at path.
func Exists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}

// Size returns the size of the file at path. The boolean is false when the
// file does not exist.
func Size(fs afero.Fs, path string) (int64, bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return info.Size(), true, nil
}
