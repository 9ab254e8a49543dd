package seo

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pfrederiksen/pagedeco/internal/logger"
	"github.com/pfrederiksen/pagedeco/internal/origin"
)

// FeedPath is where the site publishes its SEO overrides.
const FeedPath = "/seo.json"

// Record holds the overrides for one page
type Record struct {
	Path        string `json:"path"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ColumnLeft  string `json:"column-left,omitempty"`
	ColumnRight string `json:"column-right,omitempty"`
}

// Feed is the SEO sheet as served by the site
type Feed struct {
	Data []Record `json:"data"`
}

// Store lazily loads the feed and keeps it.
type Store struct {
	origin origin.Origin
	path   string
	group  singleflight.Group

	mu      sync.RWMutex
	records []Record
	loaded  bool
}

// NewStore creates a Store reading path from o. An empty path means FeedPath.
func NewStore(o origin.Origin, path string) *Store {
	if path == "" {
		path = FeedPath
	}
	return &Store{origin: o, path: path}
}

// NewStoreWithRecords creates a Store that is already loaded with records.
func NewStoreWithRecords(records []Record) *Store {
	return &Store{path: FeedPath, records: records, loaded: true}
}

func (s *Store) cached() ([]Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.loaded
}

// Records returns the feed, fetching it on first use. A feed that cannot be
// fetched or parsed is kept as empty; it is not retried. A canceled context
// leaves the Store unloaded.
func (s *Store) Records(ctx context.Context) []Record {
	if records, ok := s.cached(); ok {
		return records
	}

	v, _, _ := s.group.Do(s.path, func() (interface{}, error) {
		if records, ok := s.cached(); ok {
			return records, nil
		}

		var feed Feed
		err := origin.FetchJSON(ctx, s.origin, s.path, &feed)
		if err != nil {
			if ctx.Err() != nil {
				return []Record{}, nil
			}
			logger.Warn("seo feed unavailable", logger.Fields{
				"path":  s.path,
				"error": err.Error(),
			})
			feed.Data = []Record{}
		}
		if feed.Data == nil {
			feed.Data = []Record{}
		}

		s.mu.Lock()
		s.records = feed.Data
		s.loaded = true
		s.mu.Unlock()

		logger.IncrCounter("seo.feed.loaded")
		return feed.Data, nil
	})
	return v.([]Record)
}

// Lookup returns the record whose path equals path exactly.
func (s *Store) Lookup(ctx context.Context, path string) (Record, bool) {
	for _, r := range s.Records(ctx) {
		if r.Path == path {
			return r, true
		}
	}
	return Record{}, false
}
