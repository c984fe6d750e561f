package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/anthology-harvester/internal/acquire"
	"github.com/pdiddy/anthology-harvester/internal/anthology"
	"github.com/pdiddy/anthology-harvester/internal/catalog"
	"github.com/pdiddy/anthology-harvester/internal/httputil"
	"github.com/pdiddy/anthology-harvester/internal/render"
	"github.com/pdiddy/anthology-harvester/pkg/types"
)

const defaultUserAgent = "anthology-harvester/0.1"

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download all paper PDFs for an anthology event",
	Long: `Fetch renders the listing page for an event and year in a browser,
extracts every paper entry carrying a pdf badge, and downloads the PDFs into
the output directory. PDFs already on disk are skipped, so an interrupted
run resumes where it left off.

Listing pages assemble their content with JavaScript; --bottomlink names an
anchor href near the bottom of the page to wait for before extraction. When
the wait times out, extraction proceeds with whatever has rendered.

Individual download failures do not abort the run: each failure is reported,
the last one lands in error.log, and the exit code stays zero.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringP("event", "e", "", "event acronym, e.g. acl or emnlp (required)")
	fetchCmd.Flags().StringP("year", "y", "", "event year, e.g. 2020 (required)")
	fetchCmd.Flags().StringP("output", "o", "", "directory to download PDFs into (required)")
	fetchCmd.Flags().BoolP("verbose", "v", false, "print per-entry progress")
	fetchCmd.Flags().StringP("bottomlink", "b", "", "anchor href to await before extraction")
	fetchCmd.Flags().BoolP("headless", "H", false, "run the browser without a window")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Duration("delay", 0, "minimum interval between entries (default 1s)")
	fetchCmd.Flags().Duration("wait-timeout", 0, "how long to wait for --bottomlink (default 30s)")
	fetchCmd.Flags().String("catalog", "", "sqlite catalog database to record the run in")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	event, _ := cmd.Flags().GetString("event")
	year, _ := cmd.Flags().GetString("year")
	outputDir, _ := cmd.Flags().GetString("output")
	if event == "" || year == "" || outputDir == "" {
		return fmt.Errorf("--event, --year, and --output are required")
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	bottomLink, _ := cmd.Flags().GetString("bottomlink")
	headless, _ := cmd.Flags().GetBool("headless")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	delay, _ := cmd.Flags().GetDuration("delay")
	waitTimeout, _ := cmd.Flags().GetDuration("wait-timeout")
	catalogPath, _ := cmd.Flags().GetString("catalog")

	pageURL := anthology.EventURL(event, year)
	entries, err := renderListing(pageURL, types.RenderConfig{
		Headless:    headless,
		WaitTimeout: waitTimeout,
		BottomHref:  bottomLink,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Found %d PDF entries at %s\n", len(entries), pageURL)

	cfg := types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DownloadDelay: delay,
		OutputDir:     outputDir,
		Verbose:       verbose,
	}
	client := httputil.NewClient(cfg.HTTPConfig)

	result, err := acquire.Harvest(context.Background(), client, entries, cfg, os.Stdout)
	if err != nil {
		return err
	}

	if catalogPath != "" {
		if err := recordRun(catalogPath, event, year, result.Entries); err != nil {
			return fmt.Errorf("recording run in catalog: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Recorded run in %s\n", catalogPath)
	}
	return nil
}

// renderListing drives the browser through one load-wait-extract cycle and
// returns the parsed entries. The session closes before the download loop
// starts, so no browser stays open while PDFs stream down.
func renderListing(pageURL string, cfg types.RenderConfig) ([]types.ListingEntry, error) {
	session, err := render.NewSession(context.Background(), cfg.Headless)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.Load(pageURL); err != nil {
		return nil, err
	}
	if cfg.BottomHref != "" {
		if err := session.WaitForAnchor(cfg.BottomHref, cfg.WaitTimeout); err != nil {
			// A timeout is recoverable: extract whatever has rendered.
			fmt.Fprintf(os.Stderr, "%v; extracting from the current page\n", err)
		}
	}
	html, err := session.HTML()
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing listing URL: %w", err)
	}
	return anthology.ParseListing(strings.NewReader(html), base)
}

func recordRun(dbPath, event, year string, results []types.EntryResult) error {
	store, err := catalog.NewStore(types.CatalogConfig{DBPath: dbPath})
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordRun(context.Background(), event, year, results)
}
