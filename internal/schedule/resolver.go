package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/pagedeco/internal/logger"
	"github.com/pfrederiksen/pagedeco/internal/origin"
)

// GlobalPath is the site-wide schedule used when a page's own schedule is
// unavailable.
const GlobalPath = "/banner-schedule.json"

// Resolver loads schedules from an origin and matches them against a page.
type Resolver struct {
	origin     origin.Origin
	globalPath string
	now        func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGlobalPath overrides the fallback schedule path.
func WithGlobalPath(path string) Option {
	return func(r *Resolver) {
		if path != "" {
			r.globalPath = path
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a Resolver reading from o.
func NewResolver(o origin.Origin, opts ...Option) *Resolver {
	r := &Resolver{
		origin:     o,
		globalPath: GlobalPath,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load fetches the schedule at path, falling back once to the global schedule.
// The error is returned only when neither could be read.
func (r *Resolver) Load(ctx context.Context, path string) (*Document, error) {
	doc, err := r.fetch(ctx, path)
	if err == nil {
		return doc, nil
	}

	logger.IncrCounter("schedule.fallback")
	logger.Warn("schedule unavailable, using global schedule", logger.Fields{
		"path":     path,
		"fallback": r.globalPath,
		"error":    err.Error(),
	})

	doc, fallbackErr := r.fetch(ctx, r.globalPath)
	if fallbackErr != nil {
		return nil, fmt.Errorf("loading schedule %s: %w (fallback: %v)", path, err, fallbackErr)
	}
	return doc, nil
}

func (r *Resolver) fetch(ctx context.Context, path string) (*Document, error) {
	var doc Document
	if err := origin.FetchJSON(ctx, r.origin, path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Resolve returns the banners scheduled for currentPath right now. Any failure
// to load a schedule yields an empty list.
func (r *Resolver) Resolve(ctx context.Context, schedulePath, currentPath string) []string {
	doc, err := r.Load(ctx, schedulePath)
	if err != nil {
		logger.IncrCounter("schedule.unavailable")
		logger.Warn("no banner schedule", logger.Fields{
			"path":  schedulePath,
			"error": err.Error(),
		})
		return []string{}
	}

	banners := Match(doc.Data, currentPath, r.now())
	logger.Debug("resolved banners", logger.Fields{
		"schedule": schedulePath,
		"page":     currentPath,
		"entries":  len(doc.Data),
		"banners":  banners,
	})
	return banners
}
