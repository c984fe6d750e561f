package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/anthology-harvester/internal/volume"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a directory of downloaded PDFs into one volume",
	Long: `Merge collects the PDFs in a harvest output directory, sorted by
filename, and binds them into a single volume PDF. The meta.json index,
error.log, and leftover temp files in the directory are ignored.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringP("output", "o", "", "harvest output directory to merge (required)")
	mergeCmd.Flags().String("out", "", "volume file to write (default <output>.pdf)")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("output")
	if dir == "" {
		return fmt.Errorf("--output is required")
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		// A directory named for its event, e.g. acl-2020/, yields
		// acl-2020.pdf in the working directory.
		out = filepath.Base(filepath.Clean(dir)) + ".pdf"
	}

	n, err := volume.MergeVolume(dir, out)
	if err != nil {
		return err
	}
	fmt.Printf("Merged %d PDFs into %s\n", n, out)
	return nil
}
