package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/glorpus-work/freshfetch/pkg/errors"
	"github.com/glorpus-work/freshfetch/pkg/scrape"
	"gopkg.in/yaml.v3"
)

// rawProfile mirrors one entry of the profile file. Unknown fields are ignored.
type rawProfile struct {
	Name                  string             `json:"name" yaml:"name"`
	ResolutionMode        string             `json:"resolutionMode" yaml:"resolutionMode"`
	Type                  string             `json:"type" yaml:"type"`
	FileURL               string             `json:"fileUrl" yaml:"fileUrl"`
	PageURL               string             `json:"pageUrl" yaml:"pageUrl"`
	LinkPattern           string             `json:"linkPattern" yaml:"linkPattern"`
	LinkOccurrence        string             `json:"linkOccurrence" yaml:"linkOccurrence"`
	VersionPattern        string             `json:"versionPattern" yaml:"versionPattern"`
	FileTemplate          string             `json:"fileTemplate" yaml:"fileTemplate"`
	RequestOptions        *rawRequestOptions `json:"requestOptions" yaml:"requestOptions"`
	OutputDirectory       string             `json:"outputDirectory" yaml:"outputDirectory"`
	SkipIfFileExists      bool               `json:"skipIfFileExists" yaml:"skipIfFileExists"`
	SkipIfLocalFileExists bool               `json:"skipIfLocalFileExists" yaml:"skipIfLocalFileExists"`
}

type rawRequestOptions struct {
	UserAgent   string `json:"userAgent" yaml:"userAgent"`
	Referer     string `json:"referer" yaml:"referer"`
	Conditional *bool  `json:"conditional" yaml:"conditional"`
}

// Load reads the profile file at path. JSON is expected unless the file
// has a .yaml or .yml extension. A file that cannot be read or parsed is an
// error; problems with individual profiles are reported by Validate.
func Load(path string) ([]*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profile file %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return DecodeYAML(bytes.NewReader(data))
	}
	return DecodeJSON(bytes.NewReader(data))
}

// DecodeJSON decodes a JSON array of profiles.
func DecodeJSON(r io.Reader) ([]*Profile, error) {
	var raws []rawProfile
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrProfileParse, err)
	}
	return convertAll(raws), nil
}

// DecodeYAML decodes a YAML sequence of profiles.
func DecodeYAML(r io.Reader) ([]*Profile, error) {
	var raws []rawProfile
	if err := yaml.NewDecoder(r).Decode(&raws); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", errors.ErrProfileParse, err)
	}
	return convertAll(raws), nil
}

func convertAll(raws []rawProfile) []*Profile {
	profiles := make([]*Profile, 0, len(raws))
	for i := range raws {
		profiles = append(profiles, convert(i, &raws[i]))
	}
	return profiles
}

func convert(index int, raw *rawProfile) *Profile {
	p := &Profile{
		Index:            index,
		Name:             strings.TrimSpace(raw.Name),
		FileTemplate:     raw.FileTemplate,
		RequestOptions:   DefaultRequestOptions(),
		SkipIfFileExists: raw.SkipIfFileExists || raw.SkipIfLocalFileExists,
	}

	p.FileURL = p.parseURL("fileUrl", raw.FileURL)
	p.PageURL = p.parseURL("pageUrl", raw.PageURL)
	p.LinkPattern = p.parsePattern("linkPattern", raw.LinkPattern)
	p.VersionPattern = p.parsePattern("versionPattern", raw.VersionPattern)

	if raw.OutputDirectory != "" {
		p.OutputDirectory = filepath.Clean(raw.OutputDirectory)
	}

	occurrence, err := scrape.ParseOccurrence(raw.LinkOccurrence)
	if err != nil {
		p.problems = append(p.problems, err.Error())
	}
	p.LinkOccurrence = occurrence

	p.Mode = p.inferMode(raw)

	// Legacy version listing profiles carry the product path in linkPattern.
	if p.Mode == ModeVersionListing && p.FileTemplate == "" && raw.LinkPattern != "" {
		p.FileTemplate = VersionPlaceholder + "/" + raw.LinkPattern + "%20Setup%20" + VersionPlaceholder + ".exe"
	}

	if raw.RequestOptions != nil {
		p.applyRequestOptions(raw.RequestOptions)
	}

	return p
}

func (p *Profile) inferMode(raw *rawProfile) Mode {
	name := raw.ResolutionMode
	if name == "" {
		name = raw.Type
	}
	if name == "" {
		if p.FileURL != nil || raw.FileURL != "" {
			return ModeDirect
		}
		return ModePageScrape
	}

	mode, err := ParseMode(name)
	if err != nil {
		p.problems = append(p.problems, err.Error())
		return ""
	}
	return mode
}

func (p *Profile) parseURL(field, raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("invalid %s: %v", field, err))
		return nil
	}
	if !u.IsAbs() || u.Host == "" {
		p.problems = append(p.problems, fmt.Sprintf("%s must be an absolute URL: %s", field, raw))
		return nil
	}
	return u
}

func (p *Profile) parsePattern(field, raw string) *regexp.Regexp {
	if raw == "" {
		return nil
	}
	re, err := regexp.Compile(raw)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("invalid %s: %v", field, err))
		return nil
	}
	return re
}

func (p *Profile) applyRequestOptions(raw *rawRequestOptions) {
	switch strings.ToLower(strings.TrimSpace(raw.UserAgent)) {
	case "", string(UserAgentPrimary), "chrome":
		p.RequestOptions.UserAgent = UserAgentPrimary
	case string(UserAgentAlternate), "curl":
		p.RequestOptions.UserAgent = UserAgentAlternate
	default:
		p.problems = append(p.problems, fmt.Sprintf("unknown userAgent %q", raw.UserAgent))
	}

	switch strings.ToLower(strings.TrimSpace(raw.Referer)) {
	case "", string(RefererNone):
		p.RequestOptions.Referer = RefererNone
	case string(RefererSelf):
		p.RequestOptions.Referer = RefererSelf
	default:
		p.problems = append(p.problems, fmt.Sprintf("unknown referer %q", raw.Referer))
	}

	if raw.Conditional != nil {
		p.RequestOptions.Conditional = *raw.Conditional
	}
}

// ValidateAll validates every profile and returns the invalid ones' errors
// keyed by index.
func ValidateAll(profiles []*Profile) map[int]error {
	problems := make(map[int]error)
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			problems[p.Index] = err
		}
	}
	return problems
}
