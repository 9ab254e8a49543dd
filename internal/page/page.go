// Package page runs the page decorations in the order a browser would: the
// SEO overrides first, then every block on the page, banners included.
package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pfrederiksen/pagedeco/internal/aem"
	"github.com/pfrederiksen/pagedeco/internal/banner"
	"github.com/pfrederiksen/pagedeco/internal/fragment"
	"github.com/pfrederiksen/pagedeco/internal/logger"
	"github.com/pfrederiksen/pagedeco/internal/origin"
	"github.com/pfrederiksen/pagedeco/internal/schedule"
	"github.com/pfrederiksen/pagedeco/internal/seo"
)

// BannerBlock is the block name the banner decorator is registered under.
const BannerBlock = "banner"

// Options configures a Pipeline.
type Options struct {
	GlobalSchedule  string
	SEOFeed         string
	TitleSuffix     string
	SanitizeColumns bool
	Now             func() time.Time
}

// Pipeline decorates pages served by one origin.
type Pipeline struct {
	origin    origin.Origin
	framework *aem.Framework
	resolver  *schedule.Resolver
	banners   *banner.Decorator
	patcher   *seo.Patcher
}

// New wires a Pipeline against o. The SEO feed is loaded at most once per
// Pipeline, so a Pipeline is meant to live as long as the page it decorates.
func New(o origin.Origin, opts Options) *Pipeline {
	p := &Pipeline{
		origin:    o,
		framework: aem.New(),
		resolver: schedule.NewResolver(o,
			schedule.WithGlobalPath(opts.GlobalSchedule),
			schedule.WithClock(opts.Now),
		),
	}

	loader := fragment.NewLoader(o, p.framework)
	p.banners = banner.New(p.resolver, loader)
	p.framework.Register(BannerBlock, p.decorateBanner)

	var seoOpts []seo.Option
	if opts.TitleSuffix != "" {
		seoOpts = append(seoOpts, seo.WithTitleSuffix(opts.TitleSuffix))
	}
	if opts.SanitizeColumns {
		seoOpts = append(seoOpts, seo.WithSanitizedColumns())
	}
	p.patcher = seo.NewPatcher(seo.NewStore(o, opts.SEOFeed), seoOpts...)

	return p
}

// run is the state of one Run, carried to block functions through the context.
type run struct {
	page    banner.Page
	banners int
}

type runKey struct{}

func runFrom(ctx context.Context) *run {
	if r, ok := ctx.Value(runKey{}).(*run); ok {
		return r
	}
	return &run{}
}

// decorateBanner adapts the banner decorator to a block function. Banners
// inside fragments still match against the outer page.
func (p *Pipeline) decorateBanner(ctx context.Context, block *goquery.Selection) error {
	r := runFrom(ctx)
	err := p.banners.Decorate(ctx, r.page, block)
	if block.Length() > 0 && block.Get(0).Parent == nil {
		r.banners++
	}
	return err
}

// Result summarizes a Run.
type Result struct {
	Path       string `json:"path"`
	SEOMatched bool   `json:"seo_matched"`
	Blocks     int    `json:"blocks"`
	Banners    int    `json:"banners"`
}

// Run patches SEO fields and decorates the blocks under the page's <main>.
// A page without <main> only gets the SEO patch.
func (p *Pipeline) Run(ctx context.Context, doc *goquery.Document, pageURL *url.URL) (*Result, error) {
	start := time.Now()
	pg := banner.Page{URL: pageURL, Doc: doc}
	result := &Result{Path: pg.Path()}

	result.SEOMatched = p.patcher.Patch(ctx, doc, result.Path)

	main := doc.Find("main").First()
	if main.Length() == 0 {
		logger.Debug("page has no main element", logger.Fields{"path": result.Path})
		return result, ctx.Err()
	}

	p.framework.DecorateMain(main)
	result.Blocks = main.Find("div.block[data-block-name]").Length()

	state := &run{page: pg}
	err := p.framework.LoadSections(context.WithValue(ctx, runKey{}, state), main)
	result.Banners = state.banners
	if err != nil {
		return result, fmt.Errorf("decorating %s: %w", result.Path, err)
	}

	logger.RecordTiming("page.run", time.Since(start))
	return result, nil
}

// Banners resolves every banner block on the page without changing it.
func (p *Pipeline) Banners(ctx context.Context, doc *goquery.Document, pageURL *url.URL) []banner.Plan {
	pg := banner.Page{URL: pageURL, Doc: doc}
	plans := []banner.Plan{}
	doc.Find("div." + BannerBlock).Each(func(_ int, block *goquery.Selection) {
		plans = append(plans, p.banners.Plan(ctx, pg, block))
	})
	return plans
}

// Schedule resolves a schedule directly, for when no page is at hand.
func (p *Pipeline) Schedule(ctx context.Context, schedulePath, pagePath string) banner.Plan {
	return banner.Plan{
		Source:   schedulePath,
		Schedule: schedulePath,
		Page:     pagePath,
		Banners:  p.resolver.Resolve(ctx, schedulePath, pagePath),
	}
}

// SEO returns the record and planned patch for path.
func (p *Pipeline) SEO(ctx context.Context, path string) (seo.Record, seo.Patch, bool) {
	return p.patcher.Lookup(ctx, path)
}

// Fetch loads and parses the page at path from the origin.
func (p *Pipeline) Fetch(ctx context.Context, path string) (*goquery.Document, error) {
	body, err := p.origin.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", path, err)
	}
	return Parse(bytes.NewReader(body))
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return doc, nil
}

// Render writes doc back out as HTML, doctype included.
func Render(w io.Writer, doc *goquery.Document) error {
	for _, n := range doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("rendering page: %w", err)
		}
	}
	return nil
}

// RenderString is Render into a string.
func RenderString(doc *goquery.Document) (string, error) {
	var sb strings.Builder
	if err := Render(&sb, doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}
