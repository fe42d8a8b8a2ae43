// Package version orders the dot-separated numeric version strings found in
// release directory listings.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

var numericPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

// Ordinal is a parsed numeric version. Trailing zero components are
// dropped, so "1", "1.0" and "1.0.0" are equal.
type Ordinal struct {
	source string
	parts  []int64
	v      *goversion.Version
}

// Parse parses a dot-separated list of non-negative integers.
func Parse(s string) (*Ordinal, error) {
	if !numericPattern.MatchString(s) {
		return nil, fmt.Errorf("invalid version %q: expected dot-separated non-negative integers", s)
	}

	fields := strings.Split(s, ".")
	parts := make([]int64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", s, err)
		}
		parts = append(parts, n)
	}
	for len(parts) > 0 && parts[len(parts)-1] == 0 {
		parts = parts[:len(parts)-1]
	}

	v, err := goversion.NewVersion(canonical(parts))
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}

	return &Ordinal{source: s, parts: parts, v: v}, nil
}

// MustParse is Parse for constants in tests and tables.
func MustParse(s string) *Ordinal {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

func canonical(parts []int64) string {
	if len(parts) == 0 {
		return "0"
	}
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = strconv.FormatInt(p, 10)
	}
	return strings.Join(strs, ".")
}

// Parts returns the trimmed numeric components.
func (o *Ordinal) Parts() []int64 {
	out := make([]int64, len(o.parts))
	copy(out, o.parts)
	return out
}

// String returns the text the ordinal was parsed from.
func (o *Ordinal) String() string {
	return o.source
}

// Compare returns -1, 0 or 1. Missing trailing components count as zero.
func (o *Ordinal) Compare(other *Ordinal) int {
	return o.v.Compare(other.v)
}

// Equal reports whether both ordinals denote the same version.
func (o *Ordinal) Equal(other *Ordinal) bool {
	return o.Compare(other) == 0
}

// Compare orders two ordinals, suitable for slices.SortFunc.
func Compare(a, b *Ordinal) int {
	return a.Compare(b)
}

// Max returns the highest ordinal, or nil for an empty slice. Among equal
// versions the first one wins.
func Max(ordinals []*Ordinal) *Ordinal {
	var best *Ordinal
	for _, o := range ordinals {
		if best == nil || o.Compare(best) > 0 {
			best = o
		}
	}
	return best
}
