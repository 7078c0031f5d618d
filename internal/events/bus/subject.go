package bus

import (
	"regexp"
	"strings"
)

func hasWildcard(pattern string) bool {
	return strings.Contains(pattern, "*") || strings.Contains(pattern, ">")
}

// compilePattern converts a NATS-style pattern to a regex. It returns nil for
// literal subjects.
func compilePattern(pattern string) *regexp.Regexp {
	if !hasWildcard(pattern) {
		return nil
	}

	escaped := regexp.QuoteMeta(pattern)
	// * matches one token, > matches the rest
	escaped = strings.ReplaceAll(escaped, `\*`, `[^.]+`)
	escaped = strings.ReplaceAll(escaped, `\>`, `.+`)

	regex, err := regexp.Compile("^" + escaped + "$")
	if err != nil {
		return nil
	}
	return regex
}

// matches reports whether subject is covered by pattern.
func matches(subject, pattern string, regex *regexp.Regexp) bool {
	if !hasWildcard(pattern) {
		return subject == pattern
	}
	return regex != nil && regex.MatchString(subject)
}
