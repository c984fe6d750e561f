// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"
	"time"

	"github.com/pdiddy/anthology-harvester/pkg/types"
)

// DefaultTimeout is applied when a config leaves the HTTP timeout unset.
const DefaultTimeout = 60 * time.Second

// NewClient returns an HTTP client honoring the configured request timeout,
// falling back to DefaultTimeout when the config leaves it unset.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
