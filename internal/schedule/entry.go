package schedule

import (
	"time"

	"github.com/pfrederiksen/pagedeco/internal/glob"
	"github.com/pfrederiksen/pagedeco/internal/sheetdate"
)

// Entry is one scheduling rule
type Entry struct {
	URL    string          `json:"URL"`
	Start  sheetdate.Value `json:"start"`
	End    sheetdate.Value `json:"end"`
	Banner string          `json:"banner"`
}

// Document is a schedule sheet as served by the site
type Document struct {
	Data []Entry `json:"data"`
}

// MatchesPath reports whether the rule's URL glob matches path. An empty URL
// matches every path.
func (e Entry) MatchesPath(path string) bool {
	return glob.Match(e.URL, path)
}

// ActiveAt reports whether now falls inside the rule's window: on or after
// Start and strictly before End. Blank bounds are open.
func (e Entry) ActiveAt(now time.Time) bool {
	if e.Start.Present() && !e.Start.NotAfter(now) {
		return false
	}
	if e.End.Present() && !e.End.After(now) {
		return false
	}
	return true
}

// Match returns the banners of every entry matching currentPath at now, in
// sheet order. Only the first element is meant to be shown.
func Match(entries []Entry, currentPath string, now time.Time) []string {
	banners := make([]string, 0)
	for _, e := range entries {
		if !e.MatchesPath(currentPath) {
			continue
		}
		if !e.ActiveAt(now) {
			continue
		}
		banners = append(banners, e.Banner)
	}
	return banners
}
