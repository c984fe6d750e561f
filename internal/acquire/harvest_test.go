// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/anthology-harvester/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake"

// newPDFServer serves fake PDF bytes for any .pdf path and 404s the rest.
func newPDFServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".pdf") {
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, fakePDFContent)
			return
		}
		http.NotFound(w, r)
	}))
}

func testConfig(dir string) types.HarvestConfig {
	return types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "anthology-harvester-test/0.1",
		},
		// Keep pacing out of the way; zero would select the 1s default.
		DownloadDelay: time.Millisecond,
		OutputDir:     dir,
		Verbose:       true,
	}
}

func readIndex(t *testing.T, dir string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		t.Fatalf("reading meta.json: %v", err)
	}
	index := make(map[string]string)
	if err := json.Unmarshal(data, &index); err != nil {
		t.Fatalf("parsing meta.json: %v", err)
	}
	return index
}

func TestFileID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"anthology pdf", "https://aclweb.org/anthology/2020.acl-main.1.pdf", "2020.acl-main.1"},
		{"workshop pdf", "https://example.org/papers/W19-1234.pdf", "W19-1234"},
		{"no extension", "https://example.org/papers/paper", "paper"},
		{"trailing slash", "https://example.org/papers/", ""},
		{"bare filename", "paper.pdf", "paper"},
		{"dotted id keeps inner dots", "https://aclweb.org/anthology/2020.emnlp-main.550.pdf", "2020.emnlp-main.550"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileID(tt.url); got != tt.want {
				t.Errorf("FileID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestHarvestEntryDownloads(t *testing.T) {
	ts := newPDFServer(t)
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	var buf bytes.Buffer

	entry := types.ListingEntry{
		Title:  "Foo_Bar: Étude",
		PDFURL: ts.URL + "/anthology/2020.acl-main.1.pdf",
	}
	res := HarvestEntry(ts.Client(), entry, cfg, &buf)

	if res.Status != types.StatusDownloaded {
		t.Fatalf("Status = %q, want %q (reason: %s)", res.Status, types.StatusDownloaded, res.Reason)
	}
	if res.FileID != "2020.acl-main.1" {
		t.Errorf("FileID = %q, want %q", res.FileID, "2020.acl-main.1")
	}

	wantPath := filepath.Join(dir, "2020.acl-main.1-Foo_Bar: tude.pdf")
	if res.Path != wantPath {
		t.Errorf("Path = %q, want %q", res.Path, wantPath)
	}
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("PDF content = %q, want %q", string(data), fakePDFContent)
	}
	if !strings.Contains(buf.String(), "downloading:") {
		t.Error("output should contain 'downloading:'")
	}
}

func TestHarvestEntrySkipsExistingWithoutFetch(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)

	// Pre-create the target so the entry is skipped.
	existing := filepath.Join(dir, "2020.acl-main.1-Existing Paper.pdf")
	if err := os.WriteFile(existing, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	entry := types.ListingEntry{
		Title:  "Existing Paper",
		PDFURL: ts.URL + "/anthology/2020.acl-main.1.pdf",
	}
	res := HarvestEntry(ts.Client(), entry, cfg, &buf)

	if res.Status != types.StatusSkipped {
		t.Fatalf("Status = %q, want %q", res.Status, types.StatusSkipped)
	}
	if got := atomic.LoadInt32(&hits); got != 0 {
		t.Errorf("server hit %d times for a skipped entry, want 0", got)
	}
	if !strings.Contains(buf.String(), "skipped:") {
		t.Error("output should contain 'skipped:'")
	}

	// The pre-existing file is left untouched.
	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "existing" {
		t.Errorf("existing file content = %q, want %q", string(data), "existing")
	}
}

func TestHarvestEntryNon200LeavesNoFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	var buf bytes.Buffer

	entry := types.ListingEntry{
		Title:  "Missing Paper",
		PDFURL: ts.URL + "/anthology/gone.pdf",
	}
	res := HarvestEntry(ts.Client(), entry, cfg, &buf)

	if res.Status != types.StatusFailed {
		t.Fatalf("Status = %q, want %q", res.Status, types.StatusFailed)
	}
	if !strings.Contains(res.Reason, "HTTP 404") {
		t.Errorf("Reason = %q, want mention of HTTP 404", res.Reason)
	}
	if _, err := os.Stat(res.Path); !os.IsNotExist(err) {
		t.Errorf("target file should not exist after a failed download, stat err = %v", err)
	}
	if !strings.Contains(buf.String(), "failed:") {
		t.Error("output should contain 'failed:'")
	}

	// No temp files left behind either.
	matches, err := filepath.Glob(filepath.Join(dir, ".harvest-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestHarvest(t *testing.T) {
	ts := newPDFServer(t)
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	var buf bytes.Buffer

	entries := []types.ListingEntry{
		{Title: "First Paper", PDFURL: ts.URL + "/anthology/2020.acl-main.1.pdf"},
		{Title: "Gone Paper", PDFURL: ts.URL + "/anthology/missing"},
		{Title: "Second Paper", PDFURL: ts.URL + "/anthology/2020.acl-main.2.pdf"},
	}

	result, err := Harvest(context.Background(), ts.Client(), entries, cfg, &buf)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	if result.Downloaded != 2 {
		t.Errorf("Downloaded = %d, want 2", result.Downloaded)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Total() != 3 {
		t.Errorf("Total = %d, want 3", result.Total())
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if len(result.Entries) != 3 {
		t.Errorf("len(Entries) = %d, want 3", len(result.Entries))
	}
	if !strings.Contains(buf.String(), "Harvest summary: 2 downloaded, 0 skipped, 1 failed (total: 3)") {
		t.Errorf("output missing summary line, got:\n%s", buf.String())
	}

	// Failed entries stay out of the index.
	index := readIndex(t, dir)
	if len(index) != 2 {
		t.Fatalf("index has %d entries, want 2: %v", len(index), index)
	}
	if index["2020.acl-main.1"] != "First Paper" {
		t.Errorf("index[2020.acl-main.1] = %q, want %q", index["2020.acl-main.1"], "First Paper")
	}
	if index["2020.acl-main.2"] != "Second Paper" {
		t.Errorf("index[2020.acl-main.2] = %q, want %q", index["2020.acl-main.2"], "Second Paper")
	}

	// error.log holds the failure.
	logData, err := os.ReadFile(filepath.Join(dir, "error.log"))
	if err != nil {
		t.Fatalf("reading error.log: %v", err)
	}
	if !strings.Contains(string(logData), "/anthology/missing") {
		t.Errorf("error.log = %q, want mention of the failed URL", string(logData))
	}
}

func TestHarvestSkippedEntriesStillIndexed(t *testing.T) {
	ts := newPDFServer(t)
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)

	existing := filepath.Join(dir, "2020.acl-main.5-Old Paper.pdf")
	if err := os.WriteFile(existing, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	entries := []types.ListingEntry{
		{Title: "Old Paper", PDFURL: ts.URL + "/anthology/2020.acl-main.5.pdf"},
	}
	result, err := Harvest(context.Background(), ts.Client(), entries, cfg, &buf)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}

	index := readIndex(t, dir)
	if index["2020.acl-main.5"] != "Old Paper" {
		t.Errorf("index[2020.acl-main.5] = %q, want %q", index["2020.acl-main.5"], "Old Paper")
	}
}

func TestHarvestIndexKeysSorted(t *testing.T) {
	ts := newPDFServer(t)
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	var buf bytes.Buffer

	// Deliberately out of order; the file must come out sorted anyway.
	entries := []types.ListingEntry{
		{Title: "Last", PDFURL: ts.URL + "/anthology/zzz.9.pdf"},
		{Title: "First", PDFURL: ts.URL + "/anthology/aaa.1.pdf"},
		{Title: "Middle", PDFURL: ts.URL + "/anthology/mmm.5.pdf"},
	}
	if _, err := Harvest(context.Background(), ts.Client(), entries, cfg, &buf); err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		t.Fatalf("reading meta.json: %v", err)
	}
	text := string(raw)
	posA := strings.Index(text, `"aaa.1"`)
	posM := strings.Index(text, `"mmm.5"`)
	posZ := strings.Index(text, `"zzz.9"`)
	if posA < 0 || posM < 0 || posZ < 0 {
		t.Fatalf("meta.json missing keys:\n%s", text)
	}
	if !(posA < posM && posM < posZ) {
		t.Errorf("keys not sorted: positions aaa=%d mmm=%d zzz=%d\n%s", posA, posM, posZ, text)
	}
}

func TestHarvestNonASCIITitlePreservedInIndex(t *testing.T) {
	ts := newPDFServer(t)
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	var buf bytes.Buffer

	entries := []types.ListingEntry{
		{Title: "Étude café & <tags>", PDFURL: ts.URL + "/anthology/2020.acl-main.3.pdf"},
	}
	if _, err := Harvest(context.Background(), ts.Client(), entries, cfg, &buf); err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	// The index keeps the title verbatim: accents intact, no HTML escaping.
	raw, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "Étude café & <tags>") {
		t.Errorf("meta.json should keep the title verbatim, got:\n%s", string(raw))
	}

	// The filename is the folded form.
	if _, err := os.Stat(filepath.Join(dir, "2020.acl-main.3-tude caf & <tags>.pdf")); err != nil {
		t.Errorf("expected folded filename on disk: %v", err)
	}
}

func TestHarvestDuplicateFileIDLastTitleWins(t *testing.T) {
	ts := newPDFServer(t)
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	var buf bytes.Buffer

	url := ts.URL + "/anthology/2020.acl-main.7.pdf"
	entries := []types.ListingEntry{
		{Title: "Earlier Title", PDFURL: url},
		{Title: "Later Title", PDFURL: url},
	}
	result, err := Harvest(context.Background(), ts.Client(), entries, cfg, &buf)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if result.Downloaded != 2 {
		t.Errorf("Downloaded = %d, want 2 (titles differ, so paths differ)", result.Downloaded)
	}

	index := readIndex(t, dir)
	if len(index) != 1 {
		t.Fatalf("index has %d keys, want 1: %v", len(index), index)
	}
	if index["2020.acl-main.7"] != "Later Title" {
		t.Errorf("index[2020.acl-main.7] = %q, want %q", index["2020.acl-main.7"], "Later Title")
	}
}

func TestHarvestErrorLogKeepsMostRecentFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	var buf bytes.Buffer

	entries := []types.ListingEntry{
		{Title: "First Failure", PDFURL: ts.URL + "/anthology/first.pdf"},
		{Title: "Second Failure", PDFURL: ts.URL + "/anthology/second.pdf"},
	}
	result, err := Harvest(context.Background(), ts.Client(), entries, cfg, &buf)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if result.Failed != 2 {
		t.Errorf("Failed = %d, want 2", result.Failed)
	}

	logData, err := os.ReadFile(filepath.Join(dir, "error.log"))
	if err != nil {
		t.Fatalf("reading error.log: %v", err)
	}
	if !strings.Contains(string(logData), "second.pdf") {
		t.Errorf("error.log should hold the most recent failure, got:\n%s", string(logData))
	}
	if strings.Contains(string(logData), "first.pdf") {
		t.Errorf("error.log should hold a single failure, got:\n%s", string(logData))
	}
}

func TestHarvestCleanRunLeavesOldErrorLog(t *testing.T) {
	ts := newPDFServer(t)
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)

	stale := filepath.Join(dir, "error.log")
	if err := os.WriteFile(stale, []byte("stale failure\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	entries := []types.ListingEntry{
		{Title: "Fine", PDFURL: ts.URL + "/anthology/2020.acl-main.8.pdf"},
	}
	if _, err := Harvest(context.Background(), ts.Client(), entries, cfg, &buf); err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	data, err := os.ReadFile(stale)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "stale failure\n" {
		t.Errorf("clean run rewrote error.log: %q", string(data))
	}
}

func TestHarvestNoEntries(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	var buf bytes.Buffer

	result, err := Harvest(context.Background(), http.DefaultClient, nil, cfg, &buf)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if result.Total() != 0 {
		t.Errorf("Total = %d, want 0", result.Total())
	}

	// The index is still written, just empty.
	index := readIndex(t, dir)
	if len(index) != 0 {
		t.Errorf("index = %v, want empty", index)
	}
	if !strings.Contains(buf.String(), "Harvest summary: 0 downloaded, 0 skipped, 0 failed (total: 0)") {
		t.Errorf("output missing summary line, got:\n%s", buf.String())
	}
}

func TestHarvestQuietModeStillReportsFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "ok.pdf") {
			fmt.Fprint(w, fakePDFContent)
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Verbose = false
	var buf bytes.Buffer

	entries := []types.ListingEntry{
		{Title: "Fine", PDFURL: ts.URL + "/anthology/ok.pdf"},
		{Title: "Broken", PDFURL: ts.URL + "/anthology/broken"},
	}
	if _, err := Harvest(context.Background(), ts.Client(), entries, cfg, &buf); err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "downloading:") {
		t.Error("quiet mode should not print progress lines")
	}
	if !strings.Contains(out, "failed:") {
		t.Error("failures should print regardless of verbosity")
	}
	if !strings.Contains(out, "Harvest summary:") {
		t.Error("summary should print regardless of verbosity")
	}
}

func TestHarvestCancelledRunStillWritesIndex(t *testing.T) {
	ts := newPDFServer(t)
	defer ts.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.DownloadDelay = 10 * time.Second
	var buf bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []types.ListingEntry{
		{Title: "Got Through", PDFURL: ts.URL + "/anthology/2020.acl-main.1.pdf"},
		{Title: "Never Reached", PDFURL: ts.URL + "/anthology/2020.acl-main.2.pdf"},
	}
	result, err := Harvest(ctx, ts.Client(), entries, cfg, &buf)
	if err == nil {
		t.Fatal("expected a context error")
	}

	// The first pace wait stamps the clock without blocking; the second one
	// observes the cancelled context, after both entries were processed.
	if result.Downloaded != 2 {
		t.Errorf("Downloaded = %d, want 2", result.Downloaded)
	}
	index := readIndex(t, dir)
	if len(index) != 2 {
		t.Errorf("index = %v, want both processed entries", index)
	}
}
