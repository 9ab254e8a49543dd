// Package banner decorates "banner" blocks: it picks the scheduled banner for
// the page and splices the banner fragment's content in place of the block.
package banner

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/pagedeco/internal/aem"
	"github.com/pfrederiksen/pagedeco/internal/logger"
)

// MetadataName is the page metadata consulted when a block names no schedule.
const MetadataName = "banners"

// Resolver returns the banners scheduled for a page.
type Resolver interface {
	Resolve(ctx context.Context, schedulePath, currentPath string) []string
}

// FragmentLoader loads a decorated fragment, or returns nil.
type FragmentLoader interface {
	Load(ctx context.Context, path string, pageURL *url.URL) *goquery.Selection
}

// Page is the page hosting a banner block.
type Page struct {
	URL *url.URL
	Doc *goquery.Document
}

// Path returns the page path used for schedule matching.
func (p Page) Path() string {
	if p.URL == nil {
		return "/"
	}
	if path := p.URL.EscapedPath(); path != "" {
		return path
	}
	return "/"
}

func (p Page) metadata(name string) string {
	if p.Doc == nil {
		return ""
	}
	return aem.GetMetadata(p.Doc, name)
}

// Plan is what a block resolved to before anything is changed on the page.
// Source is the schedule as authored; Schedule is Source resolved against
// the page.
type Plan struct {
	Source   string   `json:"source"`
	Schedule string   `json:"schedule"`
	Page     string   `json:"page"`
	Banners  []string `json:"banners"`
}

// Selected returns the banner to show, or "" when nothing is scheduled.
func (p Plan) Selected() string {
	if len(p.Banners) == 0 {
		return ""
	}
	return p.Banners[0]
}

// SourcePath finds the block's schedule: the first link in the block, then the
// block's text, then the page metadata named "banners".
func SourcePath(block *goquery.Selection, metadata func(name string) string) string {
	if href, _ := block.Find("a").First().Attr("href"); href != "" {
		return href
	}
	if text := strings.TrimSpace(block.Text()); text != "" {
		return text
	}
	if metadata == nil {
		return ""
	}
	return strings.TrimSpace(metadata(MetadataName))
}

// Decorator decorates banner blocks.
type Decorator struct {
	resolver Resolver
	loader   FragmentLoader
}

// New creates a Decorator.
func New(resolver Resolver, loader FragmentLoader) *Decorator {
	return &Decorator{resolver: resolver, loader: loader}
}

// Plan resolves the schedule for block without touching the page. A block with
// no schedule source yields an empty Plan.
func (d *Decorator) Plan(ctx context.Context, page Page, block *goquery.Selection) Plan {
	plan := Plan{
		Source:  SourcePath(block, page.metadata),
		Page:    page.Path(),
		Banners: []string{},
	}
	if plan.Source == "" {
		return plan
	}
	plan.Schedule = ResolveSource(page.URL, plan.Source)
	plan.Banners = d.resolver.Resolve(ctx, plan.Schedule, plan.Page)
	return plan
}

// ResolveSource resolves a schedule reference against the page it appears on,
// so "schedule.json" on /express/logo means /express/schedule.json. Results
// on the page's own site are returned site-relative.
func ResolveSource(pageURL *url.URL, source string) string {
	if pageURL == nil {
		return source
	}
	ref, err := url.Parse(source)
	if err != nil {
		return source
	}
	abs := pageURL.ResolveReference(ref)
	if abs.Scheme != pageURL.Scheme || abs.Host != pageURL.Host {
		return abs.String()
	}
	site := url.URL{Path: abs.Path, RawPath: abs.RawPath, RawQuery: abs.RawQuery}
	return site.String()
}

// Decorate replaces block with the scheduled banner. When nothing is
// scheduled or the fragment cannot be used, the block is left as it is.
func (d *Decorator) Decorate(ctx context.Context, page Page, block *goquery.Selection) error {
	plan := d.Plan(ctx, page, block)
	if plan.Source == "" {
		logger.Debug("banner block has no schedule", logger.Fields{"page": plan.Page})
		return nil
	}

	selected := plan.Selected()
	fragment := d.loader.Load(ctx, selected, page.URL)
	if fragment == nil {
		logger.Debug("no banner to show", logger.Fields{
			"page":     plan.Page,
			"schedule": plan.Schedule,
			"banner":   selected,
		})
		return ctx.Err()
	}

	if !Apply(block, fragment) {
		logger.Warn("banner fragment has no section content", logger.Fields{"banner": selected})
		return nil
	}

	logger.IncrCounter("banner.applied")
	logger.Info("banner applied", logger.Fields{
		"page":     plan.Page,
		"schedule": plan.Schedule,
		"banner":   selected,
	})
	return nil
}

// Apply splices fragment into the page at block: the first section of the
// fragment lends its classes to the block's section, and the block's banner
// container is replaced by the children of that section's first element.
// It reports false, changing nothing, when the fragment has no such content.
func Apply(block, fragment *goquery.Selection) bool {
	section := fragment.Find(".section").First()
	if section.Length() == 0 {
		return false
	}
	content := section.Children().First()
	if content.Length() == 0 {
		return false
	}

	if classes := strings.Fields(section.AttrOr("class", "")); len(classes) > 0 {
		block.Closest(".section").AddClass(classes...)
	}
	block.Closest(".banner").ReplaceWithSelection(content.Children())
	return true
}
