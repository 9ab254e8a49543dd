package aem

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pfrederiksen/pagedeco/internal/logger"
)

const (
	StatusInitialized = "initialized"
	StatusLoaded      = "loaded"
)

// BlockFunc decorates one block in place.
type BlockFunc func(ctx context.Context, block *goquery.Selection) error

// Framework decorates sections and runs block decorators.
type Framework struct {
	blocks map[string]BlockFunc
}

// New creates a Framework with no block decorators registered.
func New() *Framework {
	return &Framework{blocks: make(map[string]BlockFunc)}
}

// Register installs the decorator for blocks named name.
func (f *Framework) Register(name string, fn BlockFunc) {
	f.blocks[name] = fn
}

// DecorateMain wraps sections and marks blocks under main.
func (f *Framework) DecorateMain(main *goquery.Selection) {
	decorateSections(main)
	decorateBlocks(main)
}

// LoadSections runs the registered decorator of every block, section by section
// and in document order. A failing block is logged and marked loaded anyway so
// one broken block never stops the rest of the page.
func (f *Framework) LoadSections(ctx context.Context, main *goquery.Selection) error {
	var err error
	main.Find("div.section").EachWithBreak(func(_ int, section *goquery.Selection) bool {
		section.Find("div.block[data-block-name]").EachWithBreak(func(_ int, block *goquery.Selection) bool {
			if err = ctx.Err(); err != nil {
				return false
			}
			f.loadBlock(ctx, block)
			return true
		})
		if err != nil {
			return false
		}
		section.SetAttr("data-section-status", StatusLoaded)
		return true
	})
	return err
}

func (f *Framework) loadBlock(ctx context.Context, block *goquery.Selection) {
	if status, _ := block.Attr("data-block-status"); status == StatusLoaded {
		return
	}
	name := block.AttrOr("data-block-name", "")
	block.SetAttr("data-block-status", StatusLoaded)

	fn, ok := f.blocks[name]
	if !ok {
		return
	}
	if err := fn(ctx, block); err != nil {
		logger.Error("failed to load block", logger.Fields{"block": name}, err)
	}
}

func decorateSections(main *goquery.Selection) {
	main.ChildrenFiltered("div:not([data-section-status])").Each(func(_ int, section *goquery.Selection) {
		node := section.Get(0)

		var wrappers []*html.Node
		defaultContent := false
		for _, child := range elementChildren(node) {
			isBlock := child.DataAtom == atom.Div && classAttr(child) != ""
			if isBlock || !defaultContent {
				wrapper := newElement(atom.Div)
				wrappers = append(wrappers, wrapper)
				defaultContent = !isBlock
				if defaultContent {
					setAttr(wrapper, "class", "default-content-wrapper")
				}
			}
			node.RemoveChild(child)
			wrappers[len(wrappers)-1].AppendChild(child)
		}
		for _, wrapper := range wrappers {
			node.AppendChild(wrapper)
		}

		section.AddClass("section")
		section.SetAttr("data-section-status", StatusInitialized)

		meta := section.Find("div.section-metadata").First()
		if meta.Length() == 0 {
			return
		}
		config := ReadBlockConfig(meta)
		keys := make([]string, 0, len(config))
		for key := range config {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value := config[key]
			if key == "style" {
				for _, style := range strings.Split(value, ",") {
					if style = ToClassName(style); style != "" {
						section.AddClass(style)
					}
				}
				continue
			}
			section.SetAttr("data-"+key, value)
		}
		meta.Parent().Remove()
	})
}

func decorateBlocks(main *goquery.Selection) {
	main.Find("div.section > div > div").Each(func(_ int, block *goquery.Selection) {
		classes := strings.Fields(block.AttrOr("class", ""))
		if len(classes) == 0 {
			return
		}
		if _, done := block.Attr("data-block-status"); done {
			return
		}
		name := classes[0]
		block.AddClass("block")
		block.SetAttr("data-block-name", name)
		block.SetAttr("data-block-status", StatusInitialized)
		block.Parent().AddClass(name + "-wrapper")
		block.Closest(".section").AddClass(name + "-container")
	})
}

// ReadBlockConfig reads a two-column key/value block. Keys are normalized
// with ToClassName; values are the trimmed text of the second column.
func ReadBlockConfig(block *goquery.Selection) map[string]string {
	config := make(map[string]string)
	block.ChildrenFiltered("div").Each(func(_ int, row *goquery.Selection) {
		cols := row.ChildrenFiltered("div")
		if cols.Length() < 2 {
			return
		}
		name := ToClassName(cols.Eq(0).Text())
		if name == "" {
			return
		}
		config[name] = strings.TrimSpace(cols.Eq(1).Text())
	})
	return config
}

var (
	nonClassChars = regexp.MustCompile(`[^0-9a-z]`)
	dashRuns      = regexp.MustCompile(`-+`)
)

// ToClassName lowercases name and collapses anything outside [0-9a-z] into
// single dashes, e.g. "Dark Blue!" becomes "dark-blue".
func ToClassName(name string) string {
	s := nonClassChars.ReplaceAllString(strings.ToLower(name), "-")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func elementChildren(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, c)
		}
	}
	return children
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func classAttr(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
