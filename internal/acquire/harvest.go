// Package acquire downloads listing PDFs and writes the metadata index.
package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/anthology-harvester/internal/httputil"
	"github.com/pdiddy/anthology-harvester/internal/sanitize"
	"github.com/pdiddy/anthology-harvester/pkg/types"
)

const (
	metaFile  = "meta.json"
	errorFile = "error.log"
)

// HarvestResult holds the outcome of a harvest run.
type HarvestResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Entries    []types.EntryResult
}

// Total returns the total number of entries processed.
func (r HarvestResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any entries failed.
func (r HarvestResult) HasFailures() bool {
	return r.Failed > 0
}

// FileID derives the index key for a PDF URL: the final path segment of the
// URL taken verbatim, with its extension stripped. Each entry's identifier
// comes from that entry's own URL, never from a neighbouring one.
func FileID(pdfURL string) string {
	segment := pdfURL[strings.LastIndex(pdfURL, "/")+1:]
	return strings.TrimSuffix(segment, filepath.Ext(segment))
}

// HarvestEntry processes a single listing entry: derive the file identifier
// and target path, skip the network entirely when the target already exists,
// otherwise download the PDF. The outcome is returned as a value; errors are
// carried in the result's Reason, not raised.
func HarvestEntry(client *http.Client, entry types.ListingEntry, cfg types.HarvestConfig, w io.Writer) types.EntryResult {
	fileID := FileID(entry.PDFURL)
	name := fileID + "-" + sanitize.Title(entry.Title) + ".pdf"
	res := types.EntryResult{
		Entry:  entry,
		FileID: fileID,
		Path:   filepath.Join(cfg.OutputDir, name),
	}

	// Skip if the PDF already exists.
	if _, err := os.Stat(res.Path); err == nil {
		res.Status = types.StatusSkipped
		if cfg.Verbose {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
		}
		return res
	}

	if cfg.Verbose {
		fmt.Fprintf(w, "downloading: %s\n", name)
	}
	if err := downloadFile(client, entry.PDFURL, res.Path, cfg); err != nil {
		res.Status = types.StatusFailed
		res.Reason = err.Error()
		fmt.Fprintf(w, "failed: %s (%v)\n", name, err)
		return res
	}

	res.Status = types.StatusDownloaded
	return res
}

// Harvest processes listing entries sequentially, printing per-entry status
// and returning a summary. It continues after individual failures and paces
// entries through a minimum-interval gate. Once the loop finishes the
// fileID to title index is written to meta.json; failed entries are left out
// of it. When any entry failed, error.log holds the most recent failure.
func Harvest(ctx context.Context, client *http.Client, entries []types.ListingEntry, cfg types.HarvestConfig, w io.Writer) (HarvestResult, error) {
	var result HarvestResult

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("creating output directory %s: %w", cfg.OutputDir, err)
	}

	pacer := httputil.NewPacer(cfg.DownloadDelay)
	index := make(map[string]string)

	var loopErr error
	for _, entry := range entries {
		res := HarvestEntry(client, entry, cfg, w)
		switch res.Status {
		case types.StatusDownloaded:
			result.Downloaded++
			index[res.FileID] = entry.Title
		case types.StatusSkipped:
			result.Skipped++
			index[res.FileID] = entry.Title
		case types.StatusFailed:
			result.Failed++
		}
		result.Entries = append(result.Entries, res)

		// Pace after every entry, whatever its outcome.
		if err := pacer.Wait(ctx); err != nil {
			loopErr = err
			break
		}
	}

	// The index covers every entry processed so far, even when the run was
	// cut short.
	if err := writeIndex(index, filepath.Join(cfg.OutputDir, metaFile)); err != nil {
		return result, fmt.Errorf("writing %s: %w", metaFile, err)
	}
	if err := writeErrorLog(result, filepath.Join(cfg.OutputDir, errorFile)); err != nil {
		return result, fmt.Errorf("writing %s: %w", errorFile, err)
	}
	if loopErr != nil {
		return result, loopErr
	}

	fmt.Fprintf(w, "\nHarvest summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// downloadFile fetches url to destPath using a temporary file, renamed into
// place only after the body has been written and closed. It sets User-Agent
// and requests PDF via the Accept header. The HTTP client handles redirect
// following.
func downloadFile(client *http.Client, url, destPath string, cfg types.HarvestConfig) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".harvest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeIndex serializes the fileID to title map. encoding/json orders map
// keys, so the file comes out sorted; HTML escaping is off so titles keep
// their characters verbatim.
func writeIndex(index map[string]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(index); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeErrorLog overwrites path with the most recent failure's detail. The
// log holds a single failure; a run without failures leaves any previous
// log in place.
func writeErrorLog(result HarvestResult, path string) error {
	var last *types.EntryResult
	for i := range result.Entries {
		if result.Entries[i].Status == types.StatusFailed {
			last = &result.Entries[i]
		}
	}
	if last == nil {
		return nil
	}
	detail := fmt.Sprintf("entry: %s\nurl: %s\nerror: %s\n", last.FileID, last.Entry.PDFURL, last.Reason)
	return os.WriteFile(path, []byte(detail), 0o644)
}
