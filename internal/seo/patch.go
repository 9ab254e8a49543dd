package seo

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pfrederiksen/pagedeco/internal/aem"
	"github.com/pfrederiksen/pagedeco/internal/logger"
)

// TitleSuffix is appended to the title written into *:title meta tags.
const TitleSuffix = " | Adobe Express"

// ColumnsBlock is the block built from a record's column cells.
const ColumnsBlock = "columns"

// Columns are the two cells of a columns block
type Columns struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Patch is everything a record changes on a page. Empty fields change nothing.
type Patch struct {
	Title       string   `json:"title,omitempty"`
	MetaTitle   string   `json:"meta_title,omitempty"`
	Description string   `json:"description,omitempty"`
	Columns     *Columns `json:"columns,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == "" && p.Description == "" && p.Columns == nil
}

// Patcher looks up the current page in a Store and patches the document.
type Patcher struct {
	store       *Store
	titleSuffix string
	sanitizer   *bluemonday.Policy
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithTitleSuffix overrides TitleSuffix.
func WithTitleSuffix(suffix string) Option {
	return func(p *Patcher) {
		p.titleSuffix = suffix
	}
}

// WithSanitizedColumns passes column cells through a UGC policy before they
// are inserted.
func WithSanitizedColumns() Option {
	return func(p *Patcher) {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").OnElements("div", "p", "span", "picture", "img")
		policy.AllowElements("picture", "source")
		policy.AllowAttrs("srcset", "type", "media").OnElements("source")
		p.sanitizer = policy
	}
}

// NewPatcher creates a Patcher reading from store.
func NewPatcher(store *Store, opts ...Option) *Patcher {
	p := &Patcher{store: store, titleSuffix: TitleSuffix}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan computes the patch for rec. Columns are only built when both cells are
// present.
func (p *Patcher) Plan(rec Record) Patch {
	patch := Patch{
		Title:       rec.Title,
		Description: rec.Description,
	}
	if rec.Title != "" {
		patch.MetaTitle = rec.Title + p.titleSuffix
	}
	if rec.ColumnLeft != "" && rec.ColumnRight != "" {
		left, right := rec.ColumnLeft, rec.ColumnRight
		if p.sanitizer != nil {
			left = p.sanitizer.Sanitize(left)
			right = p.sanitizer.Sanitize(right)
		}
		patch.Columns = &Columns{Left: left, Right: right}
	}
	return patch
}

// Lookup returns the patch for path, or false when the feed has no record.
func (p *Patcher) Lookup(ctx context.Context, path string) (Record, Patch, bool) {
	rec, ok := p.store.Lookup(ctx, path)
	if !ok {
		return Record{}, Patch{}, false
	}
	return rec, p.Plan(rec), true
}

// Patch applies the overrides for path to doc. A path without a record leaves
// the document untouched. It reports whether a record was found.
func (p *Patcher) Patch(ctx context.Context, doc *goquery.Document, path string) bool {
	rec, patch, ok := p.Lookup(ctx, path)
	if !ok {
		logger.Debug("no seo record", logger.Fields{"path": path})
		return false
	}

	logger.Info("seo record matched", logger.Fields{
		"path":         rec.Path,
		"title":        rec.Title,
		"description":  rec.Description,
		"column-left":  rec.ColumnLeft,
		"column-right": rec.ColumnRight,
	})

	if err := Apply(doc, patch); err != nil {
		logger.Warn("seo columns not built", logger.Fields{"path": path, "error": err.Error()})
	}
	return true
}

// Apply writes patch into doc. Title and meta changes are idempotent; each
// call appends a new columns block.
func Apply(doc *goquery.Document, patch Patch) error {
	if patch.Title != "" {
		setTitle(doc, patch.Title)
		doc.Find("h1").First().SetText(patch.Title)
		doc.Find(`meta[property$=":title"]`).SetAttr("content", patch.MetaTitle)
	}

	if patch.Description != "" {
		doc.Find(`meta[property$=":description"]`).SetAttr("content", patch.Description)
	}

	if patch.Columns != nil {
		section := doc.Find("main > div").First()
		if section.Length() == 0 {
			return nil
		}
		block, err := aem.BuildBlock(ColumnsBlock, [][]string{{patch.Columns.Left, patch.Columns.Right}})
		if err != nil {
			return fmt.Errorf("building columns: %w", err)
		}
		section.AppendSelection(block)
	}

	return nil
}

func setTitle(doc *goquery.Document, title string) {
	el := doc.Find("title").First()
	if el.Length() == 0 {
		doc.Find("head").First().AppendHtml("<title></title>")
		el = doc.Find("title").First()
	}
	el.SetText(title)
}
