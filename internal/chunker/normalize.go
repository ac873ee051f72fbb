package chunker

import "strings"

var nbspReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
)

// CleanLine replaces non-breaking spaces and trims surrounding whitespace.
func CleanLine(s string) string {
	return strings.TrimSpace(nbspReplacer.Replace(s))
}

// Normalize cleans raw paragraphs and drops the ones left empty.
func Normalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if t := CleanLine(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
