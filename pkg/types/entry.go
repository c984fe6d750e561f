// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// EntryStatus indicates the outcome of processing one listing entry.
type EntryStatus string

const (
	// StatusDownloaded means the PDF was fetched and written to disk.
	StatusDownloaded EntryStatus = "downloaded"

	// StatusSkipped means the target file already existed; no fetch was made.
	StatusSkipped EntryStatus = "skipped"

	// StatusFailed means the entry produced no file (bad URL, non-200
	// response, or a write error).
	StatusFailed EntryStatus = "failed"
)

// ListingEntry is one paper block on a rendered event listing page: the
// visible title and the href of its "pdf" badge. Entries are transient;
// they live between extraction and the download loop and are not persisted
// as standalone records.
type ListingEntry struct {
	// Title is the paper title as displayed, with "/" already replaced by
	// "_" at extraction time so the metadata index never carries path
	// separators. Non-ASCII text is preserved here; only filenames are
	// folded to ASCII.
	Title string `json:"title" yaml:"title"`

	// PDFURL is the absolute URL of the paper's PDF.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`
}

// EntryResult is the explicit per-entry outcome of a harvest run. Failures
// are carried as values so the orchestrator can enumerate them instead of
// losing all but the last one.
type EntryResult struct {
	Entry ListingEntry `json:"entry" yaml:"entry"`

	// FileID is derived from the final path segment of this entry's own
	// PDF URL with the extension stripped. It keys the metadata index and
	// prefixes the output filename.
	FileID string `json:"file_id" yaml:"file_id"`

	// Path is the local target path for the PDF, whether or not the file
	// was written by this run.
	Path string `json:"path" yaml:"path"`

	// Status records whether the PDF was downloaded, skipped as already
	// present, or failed.
	Status EntryStatus `json:"status" yaml:"status"`

	// Reason holds the failure detail when Status is StatusFailed.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// CatalogRecord is one row of the download catalog: an entry outcome tagged
// with the event and year it was harvested under.
type CatalogRecord struct {
	// FileID is the catalog primary key (last-write-wins across runs).
	FileID string `json:"file_id" yaml:"file_id"`

	// Title is the paper title, non-ASCII preserved.
	Title string `json:"title" yaml:"title"`

	// Event is the lowercased event name the run was invoked with.
	Event string `json:"event" yaml:"event"`

	// Year is the event year as given on the command line.
	Year string `json:"year" yaml:"year"`

	// PDFURL is the source URL of the PDF.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// Path is the local path of the downloaded file.
	Path string `json:"path" yaml:"path"`

	// Status is the EntryStatus string recorded for the run.
	Status string `json:"status" yaml:"status"`

	// SizeBytes is the on-disk size at record time; zero when no file exists.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`

	// DownloadedAt is when the record was written.
	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`
}
