// Package fragment loads reusable page fragments and prepares them for
// splicing into another page.
package fragment

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pfrederiksen/pagedeco/internal/logger"
	"github.com/pfrederiksen/pagedeco/internal/origin"
)

const (
	// Suffix is appended to a fragment path to get its undecorated markup.
	Suffix = ".plain.html"

	// MaxDepth bounds fragments loading fragments.
	MaxDepth = 4

	mediaPrefix = "./media_"
)

// Host decorates a freshly loaded fragment the same way a page is decorated.
type Host interface {
	DecorateMain(main *goquery.Selection)
	LoadSections(ctx context.Context, main *goquery.Selection) error
}

// Loader fetches fragments from an origin.
type Loader struct {
	origin origin.Origin
	host   Host
}

// NewLoader creates a Loader. host may be nil, in which case fragments are
// returned undecorated.
func NewLoader(o origin.Origin, host Host) *Loader {
	return &Loader{origin: o, host: host}
}

type depthKey struct{}

func depth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

// Load fetches path + ".plain.html" and returns a detached <main> holding the
// decorated fragment. It returns nil when path is empty or not site-rooted,
// or when the fragment cannot be fetched.
//
// Media references relative to the fragment ("./media_...") are rewritten to
// absolute URLs resolved against path on pageURL, since they would otherwise
// resolve against the including page.
func (l *Loader) Load(ctx context.Context, path string, pageURL *url.URL) *goquery.Selection {
	if path == "" || !strings.HasPrefix(path, "/") {
		return nil
	}
	if d := depth(ctx); d >= MaxDepth {
		logger.Warn("fragment nesting too deep", logger.Fields{"path": path, "depth": d})
		return nil
	}

	body, err := l.origin.Fetch(ctx, path+Suffix)
	if err != nil {
		logger.Warn("fragment unavailable", logger.Fields{"path": path, "error": err.Error()})
		return nil
	}

	mainNode := &html.Node{Type: html.ElementNode, DataAtom: atom.Main, Data: "main"}
	nodes, err := html.ParseFragment(bytes.NewReader(body), mainNode)
	if err != nil {
		logger.Warn("fragment unparseable", logger.Fields{"path": path, "error": err.Error()})
		return nil
	}
	for _, n := range nodes {
		mainNode.AppendChild(n)
	}
	main := goquery.NewDocumentFromNode(mainNode).Selection

	base := fragmentBase(path, pageURL)
	resetAttributeBase(main, "img", "src", base)
	resetAttributeBase(main, "source", "srcset", base)

	if l.host != nil {
		l.host.DecorateMain(main)
		ctx = context.WithValue(ctx, depthKey{}, depth(ctx)+1)
		if err := l.host.LoadSections(ctx, main); err != nil {
			logger.Warn("fragment sections not loaded", logger.Fields{"path": path, "error": err.Error()})
			return nil
		}
	}

	return main
}

func fragmentBase(path string, pageURL *url.URL) *url.URL {
	ref, err := url.Parse(path)
	if err != nil {
		ref = &url.URL{Path: path}
	}
	if pageURL == nil {
		return ref
	}
	return pageURL.ResolveReference(ref)
}

func resetAttributeBase(main *goquery.Selection, tag, attr string, base *url.URL) {
	main.Find(tag + `[` + attr + `^="` + mediaPrefix + `"]`).Each(func(_ int, el *goquery.Selection) {
		ref, err := url.Parse(el.AttrOr(attr, ""))
		if err != nil {
			return
		}
		el.SetAttr(attr, base.ResolveReference(ref).String())
	})
}
