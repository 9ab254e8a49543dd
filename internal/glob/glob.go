// Package glob turns the URL patterns used in banner schedules into anchored
// regular expressions.
//
// Two wildcards are supported:
//   - "*" matches a run of [0-9a-z-.] characters, so it never crosses a "/"
//   - "**" matches anything, including the empty string
//
// Only the first "." of a pattern is taken literally; later dots keep their
// regular expression meaning. Schedules in the wild depend on this, so it is
// preserved. Underscores are also treated as "**".
package glob

import (
	"regexp"
	"strings"
)

const (
	// MatchAll is the pattern used when a schedule entry leaves URL empty.
	MatchAll = "**"

	segmentChars = `[0-9a-z\-.]*`
	placeholder  = "_"
)

// Translate returns the regular expression source for a glob, without anchors.
func Translate(glob string) string {
	if glob == "" {
		glob = MatchAll
	}

	re := strings.Replace(glob, ".", `\.`, 1)
	re = strings.ReplaceAll(re, "**", placeholder)
	re = strings.ReplaceAll(re, "*", segmentChars)
	re = strings.ReplaceAll(re, placeholder, ".*")
	return re
}

// Compile returns a pattern matching the whole path against glob. It never fails:
// a glob whose translation is not a valid expression matches its literal text.
func Compile(glob string) *regexp.Regexp {
	re, err := regexp.Compile("^" + Translate(glob) + "$")
	if err != nil {
		return regexp.MustCompile("^" + regexp.QuoteMeta(glob) + "$")
	}
	return re
}

// Match reports whether path matches glob.
func Match(glob, path string) bool {
	return Compile(glob).MatchString(path)
}
