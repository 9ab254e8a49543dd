// Package cli implements the pagedeco command-line interface.
//
// The cli package provides the Cobra-based commands that run the page
// pipeline against a live site or a local export: decorating a page, showing
// which banners a page would get, showing the SEO overrides for a path, and
// testing schedule URL patterns. Output is text or JSON.
package cli
