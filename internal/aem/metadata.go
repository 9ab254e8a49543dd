package aem

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GetMetadata returns the content of the page's <meta> tags for name. Names
// containing ":" (og:title) are matched on property, others on name. Several
// matching tags are joined with ", ".
func GetMetadata(doc *goquery.Document, name string) string {
	if name == "" {
		return ""
	}
	attr := "name"
	if strings.Contains(name, ":") {
		attr = "property"
	}

	var values []string
	doc.Find("head meta").Each(func(_ int, meta *goquery.Selection) {
		if v, _ := meta.Attr(attr); v == name {
			values = append(values, meta.AttrOr("content", ""))
		}
	})
	return strings.Join(values, ", ")
}
