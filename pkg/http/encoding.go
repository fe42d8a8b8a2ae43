package http

import (
	"bufio"
	"bytes"
	"io"
	"mime"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/mholt/archives"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/glorpus-work/freshfetch/pkg/errors"
)

// IsDecodable reports whether DecodeReader understands the content coding.
func IsDecodable(coding string) bool {
	switch normalizeCoding(coding) {
	case "gzip", "x-gzip", "deflate":
		return true
	default:
		return false
	}
}

// DecodeReader wraps r so it yields the body with the content coding removed.
// An empty or "identity" coding returns r unchanged.
func DecodeReader(coding string, r io.Reader) (io.ReadCloser, error) {
	switch normalizeCoding(coding) {
	case "", "identity":
		return io.NopCloser(r), nil
	case "gzip", "x-gzip":
		rc, err := archives.Gz{}.OpenReader(r)
		if err != nil {
			return nil, errors.Transport(err, "failed to open gzip stream")
		}
		return rc, nil
	case "deflate":
		return openDeflate(r)
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedCoding, "%q", coding)
	}
}

// openDeflate accepts both the zlib wrapped stream the RFC prescribes and
// the raw deflate stream some servers send instead.
func openDeflate(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, errors.Transport(err, "failed to read deflate header")
	}
	if len(header) == 2 && isZlibHeader(header[0], header[1]) {
		rc, err := zlib.NewReader(br)
		if err != nil {
			return nil, errors.Transport(err, "failed to open zlib stream")
		}
		return rc, nil
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

func normalizeCoding(coding string) string {
	return strings.ToLower(strings.TrimSpace(coding))
}

// decodeCharset converts body to UTF-8 using the charset parameter of
// contentType. Without one the body is taken as UTF-8.
func decodeCharset(body []byte, contentType string) (string, error) {
	charset := ""
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			charset = strings.TrimSpace(params["charset"])
		}
	}
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(body), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", errors.Transport(err, "unsupported charset "+charset)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", errors.Transport(err, "failed to decode "+charset+" body")
	}
	return string(out), nil
}

func decodeBody(coding string, body []byte) ([]byte, error) {
	if normalizeCoding(coding) == "" || normalizeCoding(coding) == "identity" {
		return body, nil
	}
	rc, err := DecodeReader(coding, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Transport(err, "failed to decode "+coding+" body")
	}
	return out, nil
}
