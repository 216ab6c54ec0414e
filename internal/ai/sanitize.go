package ai

import "strings"

// preambles the model likes to prepend despite being told not to.
var preambles = []string{
	"here is the refined",
	"here's the refined",
	"here is the",
	"here's the",
	"the refined title is",
	"the refined description is",
	"refined title:",
	"refined description:",
	"refined:",
	"output:",
	"answer:",
}

// Sanitize strips markdown code fences, conversational preambles and wrapping
// quotes from a model response, returning the bare payload.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	s = stripFences(s)
	s = stripPreamble(s)

	// Wrapping quotes around the whole payload.
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = s[1 : len(s)-1]
		}
	}

	return strings.TrimSpace(s)
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Language tag on the opening fence, e.g. ```html or ```json.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine != "" && !strings.ContainsAny(firstLine, " \t") && len(firstLine) <= 10 {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func stripPreamble(s string) string {
	lower := strings.ToLower(s)
	for _, p := range preambles {
		if !strings.HasPrefix(lower, p) {
			continue
		}
		rest := s[len(p):]
		// The preamble usually ends with a colon and a newline before the
		// actual content.
		if idx := strings.IndexAny(rest, ":\n"); idx >= 0 && idx < 80 {
			rest = rest[idx+1:]
		}
		return strings.TrimSpace(rest)
	}
	return s
}
