package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pfrederiksen/pagedeco/internal/banner"
	"github.com/pfrederiksen/pagedeco/internal/seo"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// BannersResult is the output of the banners command
type BannersResult struct {
	Page  string        `json:"page"`
	Plans []banner.Plan `json:"plans"`
}

// SEOResult is the output of the seo command
type SEOResult struct {
	Path    string      `json:"path"`
	Matched bool        `json:"matched"`
	Record  *seo.Record `json:"record,omitempty"`
	Patch   *seo.Patch  `json:"patch,omitempty"`
}

// GlobResult is the output of the glob command
type GlobResult struct {
	Pattern string          `json:"pattern"`
	Regexp  string          `json:"regexp"`
	Matches map[string]bool `json:"matches"`
	Paths   []string        `json:"-"`
}

// WriteOutput writes result in the specified format. Text output is chosen by
// the result's type.
func WriteOutput(w io.Writer, result interface{}, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, result interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeText(w io.Writer, result interface{}) error {
	switch r := result.(type) {
	case *BannersResult:
		writeBannersText(w, r)
	case *SEOResult:
		writeSEOText(w, r)
	case *GlobResult:
		writeGlobText(w, r)
	default:
		return fmt.Errorf("no text output for %T", result)
	}
	return nil
}

func writeBannersText(w io.Writer, r *BannersResult) {
	if len(r.Plans) == 0 {
		fmt.Fprintf(w, "No banner blocks on %s.\n", r.Page)
		return
	}

	for i, plan := range r.Plans {
		if i > 0 {
			fmt.Fprintln(w)
		}
		switch {
		case plan.Source == "":
			fmt.Fprintln(w, "Schedule: (none)")
		case plan.Schedule != plan.Source:
			fmt.Fprintf(w, "Schedule: %s (%s)\n", plan.Schedule, plan.Source)
		default:
			fmt.Fprintf(w, "Schedule: %s\n", plan.Schedule)
		}
		if len(plan.Banners) == 0 {
			fmt.Fprintln(w, "  No banner scheduled.")
			continue
		}
		for j, b := range plan.Banners {
			marker := " "
			if j == 0 {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %s\n", marker, b)
		}
	}
	fmt.Fprintf(w, "\nPage: %s\n", r.Page)
}

func writeSEOText(w io.Writer, r *SEOResult) {
	if !r.Matched {
		fmt.Fprintf(w, "No SEO record for %s.\n", r.Path)
		return
	}

	fmt.Fprintf(w, "Path: %s\n", r.Path)
	if r.Patch.Title != "" {
		fmt.Fprintf(w, "  Title:       %s\n", r.Patch.Title)
		fmt.Fprintf(w, "  Meta title:  %s\n", r.Patch.MetaTitle)
	}
	if r.Patch.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", r.Patch.Description)
	}
	if r.Patch.Columns != nil {
		fmt.Fprintf(w, "  Columns:     %s | %s\n", r.Patch.Columns.Left, r.Patch.Columns.Right)
	}
	if r.Patch.Empty() {
		fmt.Fprintln(w, "  (record changes nothing)")
	}
}

func writeGlobText(w io.Writer, r *GlobResult) {
	fmt.Fprintf(w, "%s => %s\n", r.Pattern, r.Regexp)
	for _, p := range r.Paths {
		result := "no match"
		if r.Matches[p] {
			result = "match"
		}
		fmt.Fprintf(w, "  %-8s %s\n", result, p)
	}
}
