package types

import "time"

// HTTPConfig holds shared HTTP settings used by operations that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "anthology-harvester/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RenderConfig holds settings for the browser session that renders
// listing pages.
type RenderConfig struct {
	// Headless controls whether the browser runs without a visible
	// window. The default is false so a first run can be watched.
	Headless bool `json:"headless" yaml:"headless"`

	// WaitTimeout bounds the wait for the bottom anchor to appear after
	// navigation (default 30s).
	WaitTimeout time.Duration `json:"wait_timeout" yaml:"wait_timeout"`

	// BottomHref is the href of the anchor whose presence signals that
	// the listing has fully rendered. Empty disables the wait.
	BottomHref string `json:"bottom_href" yaml:"bottom_href"`
}

// HarvestConfig holds settings for a listing harvest run.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the minimum interval between consecutive entries
	// (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// OutputDir is the directory that receives PDFs, meta.json, and
	// error.log.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Verbose enables per-entry progress lines on stdout.
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// CatalogConfig holds settings for the download catalog.
type CatalogConfig struct {
	// DBPath is the path of the catalog database file (default
	// "catalog.db"). Empty disables catalog recording.
	DBPath string `json:"db_path" yaml:"db_path"`
}
