package aem

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}

const authoredPage = `<html><head>
<meta name="banners" content="/express/banner-schedule.json">
<meta property="og:title" content="Express">
</head><body><main>
<div>
  <h1>Title</h1>
  <p>Intro</p>
  <div class="banner"><div><div>/express/schedule.json</div></div></div>
  <p>Outro</p>
</div>
<div>
  <p>Second</p>
  <div class="section-metadata">
    <div><div>Style</div><div>Dark, Wide Layout</div></div>
    <div><div>Anchor ID</div><div>promo</div></div>
  </div>
</div>
</main></body></html>`

func TestDecorateMain(t *testing.T) {
	doc := parse(t, authoredPage)
	main := doc.Find("main")

	New().DecorateMain(main)

	sections := main.Children()
	if sections.Length() != 2 {
		t.Fatalf("got %d sections, want 2", sections.Length())
	}

	first := sections.Eq(0)
	if !first.HasClass("section") || !first.HasClass("banner-container") {
		t.Errorf("first section class = %q", first.AttrOr("class", ""))
	}
	if got := first.AttrOr("data-section-status", ""); got != StatusInitialized {
		t.Errorf("data-section-status = %q, want %q", got, StatusInitialized)
	}

	wrappers := first.Children()
	wantWrappers := []string{"default-content-wrapper", "banner-wrapper", "default-content-wrapper"}
	if wrappers.Length() != len(wantWrappers) {
		t.Fatalf("got %d wrappers, want %d", wrappers.Length(), len(wantWrappers))
	}
	for i, want := range wantWrappers {
		if got := wrappers.Eq(i).AttrOr("class", ""); got != want {
			t.Errorf("wrapper %d class = %q, want %q", i, got, want)
		}
	}
	if got := wrappers.Eq(0).Children().Length(); got != 2 {
		t.Errorf("first wrapper holds %d elements, want 2 (h1, p)", got)
	}

	block := first.Find("div.banner")
	if !block.HasClass("block") {
		t.Error("banner should carry the block class")
	}
	if got := block.AttrOr("data-block-name", ""); got != "banner" {
		t.Errorf("data-block-name = %q, want banner", got)
	}

	second := sections.Eq(1)
	if !second.HasClass("dark") || !second.HasClass("wide-layout") {
		t.Errorf("section metadata styles not applied: %q", second.AttrOr("class", ""))
	}
	if got := second.AttrOr("data-anchor-id", ""); got != "promo" {
		t.Errorf("data-anchor-id = %q, want promo", got)
	}
	if second.Find(".section-metadata").Length() != 0 {
		t.Error("section-metadata block should be removed")
	}
}

func TestDecorateMain_Idempotent(t *testing.T) {
	doc := parse(t, authoredPage)
	main := doc.Find("main")
	fw := New()

	fw.DecorateMain(main)
	before, _ := main.Html()
	fw.DecorateMain(main)
	after, _ := main.Html()

	if before != after {
		t.Errorf("second DecorateMain changed markup:\n%s\n---\n%s", before, after)
	}
}

func TestLoadSections(t *testing.T) {
	doc := parse(t, authoredPage)
	main := doc.Find("main")

	var calls []string
	fw := New()
	fw.Register("banner", func(ctx context.Context, block *goquery.Selection) error {
		calls = append(calls, strings.TrimSpace(block.Text()))
		return errors.New("broken")
	})

	fw.DecorateMain(main)
	if err := fw.LoadSections(context.Background(), main); err != nil {
		t.Fatalf("LoadSections() error = %v", err)
	}

	if len(calls) != 1 || calls[0] != "/express/schedule.json" {
		t.Errorf("banner decorator calls = %v", calls)
	}
	main.Find("div.section").Each(func(i int, s *goquery.Selection) {
		if got := s.AttrOr("data-section-status", ""); got != StatusLoaded {
			t.Errorf("section %d status = %q, want loaded", i, got)
		}
	})
	if got := main.Find("div.banner").AttrOr("data-block-status", ""); got != StatusLoaded {
		t.Errorf("failed block status = %q, want loaded", got)
	}

	// A second pass does not run loaded blocks again.
	if err := fw.LoadSections(context.Background(), main); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Errorf("loaded block decorated again: %v", calls)
	}
}

func TestLoadSections_Canceled(t *testing.T) {
	doc := parse(t, authoredPage)
	main := doc.Find("main")
	fw := New()
	fw.DecorateMain(main)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := fw.LoadSections(ctx, main); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadSections() error = %v, want context.Canceled", err)
	}
}

func TestGetMetadata(t *testing.T) {
	doc := parse(t, `<html><head>
<meta name="banners" content="/express/banner-schedule.json">
<meta property="og:title" content="Express">
<meta name="keywords" content="logo">
<meta name="keywords" content="design">
</head><body></body></html>`)

	tests := []struct {
		name string
		want string
	}{
		{"banners", "/express/banner-schedule.json"},
		{"og:title", "Express"},
		{"keywords", "logo, design"},
		{"missing", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetMetadata(doc, tt.name); got != tt.want {
				t.Errorf("GetMetadata(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestBuildBlock(t *testing.T) {
	block, err := BuildBlock("columns", [][]string{{"<p>Left</p>", "Right <em>side</em>"}, {"", "x"}})
	if err != nil {
		t.Fatalf("BuildBlock() error = %v", err)
	}

	got, err := goquery.OuterHtml(block)
	if err != nil {
		t.Fatal(err)
	}
	want := `<div class="columns"><div><div><p>Left</p></div><div>Right <em>side</em></div></div><div><div></div><div>x</div></div></div>`
	if got != want {
		t.Errorf("BuildBlock() =\n%s\nwant\n%s", got, want)
	}
}

func TestToClassName(t *testing.T) {
	tests := map[string]string{
		"Dark Blue!": "dark-blue",
		"  Wide  ":   "wide",
		"Anchor ID":  "anchor-id",
		"already-ok": "already-ok",
		"--x__y--":   "x-y",
		"":           "",
	}
	for in, want := range tests {
		if got := ToClassName(in); got != want {
			t.Errorf("ToClassName(%q) = %q, want %q", in, got, want)
		}
	}
}
