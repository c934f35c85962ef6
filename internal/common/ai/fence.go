package ai

import "strings"

const fence = "```"

// stripCodeFences removes one Markdown code fence (with optional language
// tag) wrapped around model output.
func stripCodeFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, fence) {
		return t
	}
	t = strings.TrimPrefix(t, fence)
	t = strings.TrimSuffix(strings.TrimSpace(t), fence)

	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		first := strings.TrimSpace(t[:nl])
		if first == "" || isLanguageTag(first) {
			t = t[nl+1:]
		}
	} else if len(t) >= 4 && strings.EqualFold(t[:4], "json") {
		t = t[4:]
	}
	return strings.TrimSpace(t)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
