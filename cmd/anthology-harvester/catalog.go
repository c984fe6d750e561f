// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/anthology-harvester/internal/catalog"
	"github.com/pdiddy/anthology-harvester/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query and export the download catalog",
	Long: `Catalog manages the SQLite database of past harvest runs. Use
subcommands to list recorded downloads or export them to YAML or JSON.`,
}

// --- list subcommand ---

var catalogListCmd = &cobra.Command{
	Use:   "list [search terms]",
	Short: "List catalog records with filters or full-text search",
	Long: `List prints recorded downloads, filtered by event, year, or status,
or matched with full-text search over titles. Positional arguments are
joined into a search query.`,
	RunE: runCatalogList,
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := catalogOptsFromFlags(cmd, args)
	records, err := store.List(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatListOutput(records, jsonOutput)
}

func formatListOutput(records []types.CatalogRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No records found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s  %-8s  %-6s  %-10s  %10s  %s\n",
		"File ID", "Event", "Year", "Status", "Size", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 104))

	for _, r := range records {
		title := r.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-24s  %-8s  %-6s  %-10s  %10d  %s\n",
			r.FileID, r.Event, r.Year, r.Status, r.SizeBytes, title)
	}

	fmt.Fprintf(os.Stdout, "\n%d records\n", len(records))
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML or JSON",
	Long: `Export writes catalog records to a file. Supports the same filter
flags as list for partial exports.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := catalogOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if out == "" {
			out = "export.yaml"
		}
		if err := store.ExportYAML(context.Background(), opts, out); err != nil {
			return err
		}
	case "json":
		if out == "" {
			out = "export.json"
		}
		if err := store.ExportJSON(context.Background(), opts, out); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	fmt.Printf("Exported to %s\n", out)
	return nil
}

// --- shared helpers ---

func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	return catalog.NewStore(types.CatalogConfig{DBPath: dbPath})
}

func catalogOptsFromFlags(cmd *cobra.Command, args []string) catalog.QueryOptions {
	search, _ := cmd.Flags().GetString("search")
	if search == "" && len(args) > 0 {
		search = strings.Join(args, " ")
	}

	event, _ := cmd.Flags().GetString("event")
	year, _ := cmd.Flags().GetString("year")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	return catalog.QueryOptions{
		Search: search,
		Event:  event,
		Year:   year,
		Status: status,
		Limit:  limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	catalogCmd.PersistentFlags().String("db", "", "catalog database path (default ./catalog.db)")

	// List flags.
	catalogListCmd.Flags().String("search", "", "full-text search over titles")
	catalogListCmd.Flags().String("event", "", "filter by event acronym")
	catalogListCmd.Flags().String("year", "", "filter by year")
	catalogListCmd.Flags().String("status", "", "filter by status: downloaded, skipped, failed")
	catalogListCmd.Flags().Int("limit", 0, "maximum records (0 = use default)")
	catalogListCmd.Flags().Bool("json", false, "output records as JSON")

	// Export flags.
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	catalogExportCmd.Flags().String("out", "", "output file (default export.yaml / export.json)")
	catalogExportCmd.Flags().String("search", "", "full-text search filter for partial export")
	catalogExportCmd.Flags().String("event", "", "filter by event acronym")
	catalogExportCmd.Flags().String("year", "", "filter by year")
	catalogExportCmd.Flags().String("status", "", "filter by status for partial export")
	catalogExportCmd.Flags().Int("limit", 0, "maximum records to export (0 = all)")

	// Wire subcommands.
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
