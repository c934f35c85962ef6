package extractlineup

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"festival-workers/internal/common/ai"
)

type sourceKind int

const (
	sourceURL sourceKind = iota
	sourceText
	sourceBinary
)

// source is one decoded extraction input.
type source struct {
	kind sourceKind
	uri  string
	mime string
	data []byte
}

func (s source) file() ai.File {
	if s.kind == sourceURL {
		return ai.File{URI: s.uri, MIMEType: s.mime}
	}
	return ai.File{Data: s.data, MIMEType: s.mime}
}

// tokens is the estimated prompt cost of the source.
func (s source) tokens() int {
	if s.kind == sourceURL {
		return URLTokenEstimate
	}
	return len(s.data) / CharsPerToken
}

func parseInputs(raw []string) ([]source, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one input is required")
	}
	out := make([]source, 0, len(raw))
	for i, r := range raw {
		s, err := parseInput(strings.TrimSpace(r))
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func parseInput(s string) (source, error) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return source{}, fmt.Errorf("invalid URL %q", s)
		}
		return source{kind: sourceURL, uri: u.String(), mime: "text/html"}, nil

	case strings.HasPrefix(lower, "data:"):
		return parseDataURL(s)

	default:
		return source{}, fmt.Errorf("input must be an http(s) URL or a base64 data URL")
	}
}

// parseDataURL accepts data:<mime>[;params];base64,<payload>.
func parseDataURL(s string) (source, error) {
	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return source{}, fmt.Errorf("data URL has no payload")
	}
	params := strings.Split(header, ";")
	if len(params) < 2 || !strings.EqualFold(params[len(params)-1], "base64") {
		return source{}, fmt.Errorf("data URL must be base64 encoded")
	}

	mime := strings.ToLower(strings.TrimSpace(params[0]))
	if mime == "" {
		mime = "text/plain"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return source{}, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(data) == 0 {
		return source{}, fmt.Errorf("data URL is empty")
	}

	kind := sourceBinary
	if isTextMIME(mime) {
		kind = sourceText
	}
	return source{kind: kind, mime: mime, data: data}, nil
}

func isTextMIME(mime string) bool {
	switch {
	case strings.HasPrefix(mime, "text/"):
		return true
	case mime == "application/json", mime == "application/xml":
		return true
	default:
		return false
	}
}

// largestText returns the index of the biggest text source, or -1.
func largestText(sources []source) int {
	idx := -1
	for i, s := range sources {
		if s.kind != sourceText {
			continue
		}
		if idx < 0 || len(s.data) > len(sources[idx].data) {
			idx = i
		}
	}
	return idx
}
