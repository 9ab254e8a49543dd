package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/pagedeco/internal/config"
	"github.com/pfrederiksen/pagedeco/internal/glob"
	"github.com/pfrederiksen/pagedeco/internal/logger"
	"github.com/pfrederiksen/pagedeco/internal/origin"
	"github.com/pfrederiksen/pagedeco/internal/page"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig   string
	flagOrigin   string
	flagSiteDir  string
	flagNow      string
	flagVerbose  bool
	flagFormat   string
	flagInput    string
	flagOut      string
	flagSchedule string
)

// app is what the persistent pre-run builds for every command.
type app struct {
	origin   origin.Origin
	pipeline *page.Pipeline
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagedeco",
		Short: "Decorate site pages with scheduled banners and SEO overrides",
		Long: `A CLI tool that applies scheduled promotional banners and per-page SEO
overrides to pages of a site, either live over HTTP or from a local export.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	pf.StringVar(&flagOrigin, "origin", "", "Site base URL (e.g., https://www.example.com)")
	pf.StringVar(&flagSiteDir, "site-dir", "", "Local site export to read instead of the origin")
	pf.StringVar(&flagNow, "now", "", "Evaluate schedules at this RFC3339 time instead of now")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging and print metrics")

	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			writeMetrics(cmd.ErrOrStderr())
		}
	}

	cmd.AddCommand(newDecorateCmd(), newBannersCmd(), newSEOCmd(), newGlobCmd())
	return cmd
}

func newDecorateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decorate <path>",
		Short: "Apply SEO overrides and banners to a page and print the HTML",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecorate,
	}
	cmd.Flags().StringVar(&flagInput, "input", "", "Read the page from this file instead of the origin")
	cmd.Flags().StringVar(&flagOut, "out", "", "Write the decorated page to this file")
	return cmd
}

func newBannersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banners <path>",
		Short: "Show the banners scheduled for a page",
		Args:  cobra.ExactArgs(1),
		RunE:  runBanners,
	}
	cmd.Flags().StringVar(&flagSchedule, "schedule", "", "Resolve this schedule instead of the page's banner blocks")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	return cmd
}

func newSEOCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seo <path>",
		Short: "Show the SEO overrides for a page",
		Args:  cobra.ExactArgs(1),
		RunE:  runSEO,
	}
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	return cmd
}

func newGlobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glob <pattern> <path>...",
		Short: "Show how a schedule URL pattern matches paths",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runGlob,
	}
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	return cmd
}

// setup loads the config, applies flags over it and builds the pipeline.
func setup() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagOrigin != "" {
		cfg.Origin = flagOrigin
	}
	if flagSiteDir != "" {
		cfg.SiteDir = flagSiteDir
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	o, err := cfg.NewOrigin()
	if err != nil {
		return nil, fmt.Errorf("initializing origin: %w", err)
	}

	opts := page.Options{
		GlobalSchedule:  cfg.GlobalSchedule,
		SEOFeed:         cfg.SEOFeed,
		TitleSuffix:     cfg.TitleSuffix,
		SanitizeColumns: cfg.SanitizeColumns,
	}
	if flagNow != "" {
		at, err := time.Parse(time.RFC3339, flagNow)
		if err != nil {
			return nil, fmt.Errorf("invalid --now: %w", err)
		}
		opts.Now = func() time.Time { return at }
	}

	return &app{origin: o, pipeline: page.New(o, opts)}, nil
}

// pageURL is the address the page is decorated as. Pages from a local export
// keep a site-relative URL.
func (a *app) pageURL(path string) (*url.URL, error) {
	if h, ok := a.origin.(*origin.HTTP); ok {
		return h.Resolve(path)
	}
	u, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing page path %q: %w", path, err)
	}
	return u, nil
}

func runDecorate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	path := args[0]

	pageURL, err := a.pageURL(path)
	if err != nil {
		return err
	}

	doc, err := a.loadPage(ctx, path)
	if err != nil {
		return err
	}

	result, err := a.pipeline.Run(ctx, doc, pageURL)
	if err != nil {
		return err
	}
	logger.Info("page decorated", logger.Fields{
		"path":        result.Path,
		"seo_matched": result.SEOMatched,
		"blocks":      result.Blocks,
		"banners":     result.Banners,
	})

	out := cmd.OutOrStdout()
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := page.Render(out, doc); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (a *app) loadPage(ctx context.Context, path string) (*goquery.Document, error) {
	if flagInput == "" {
		return a.pipeline.Fetch(ctx, path)
	}
	f, err := os.Open(flagInput)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	return page.Parse(f)
}

func runBanners(cmd *cobra.Command, args []string) error {
	format, err := ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	path := args[0]

	result := &BannersResult{Page: path}
	if flagSchedule != "" {
		result.Plans = append(result.Plans, a.pipeline.Schedule(ctx, flagSchedule, path))
	} else {
		pageURL, err := a.pageURL(path)
		if err != nil {
			return err
		}
		doc, err := a.pipeline.Fetch(ctx, path)
		if err != nil {
			return err
		}
		result.Plans = a.pipeline.Banners(ctx, doc, pageURL)
	}

	if err := WriteOutput(cmd.OutOrStdout(), result, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func runSEO(cmd *cobra.Command, args []string) error {
	format, err := ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}

	path := args[0]
	result := &SEOResult{Path: path}
	if rec, patch, ok := a.pipeline.SEO(cmd.Context(), path); ok {
		result.Matched = true
		result.Record = &rec
		result.Patch = &patch
	}

	if err := WriteOutput(cmd.OutOrStdout(), result, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// runGlob needs no origin, so it skips setup.
func runGlob(cmd *cobra.Command, args []string) error {
	format, err := ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	pattern := args[0]
	re := glob.Compile(pattern)
	result := &GlobResult{
		Pattern: pattern,
		Regexp:  re.String(),
		Matches: make(map[string]bool, len(args)-1),
		Paths:   args[1:],
	}
	for _, p := range args[1:] {
		result.Matches[p] = re.MatchString(p)
	}

	if err := WriteOutput(cmd.OutOrStdout(), result, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func writeMetrics(w io.Writer) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(logger.GetMetricsSnapshot()); err != nil {
		fmt.Fprintf(w, "Error writing metrics: %v\n", err)
	}
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
