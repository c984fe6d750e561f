// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package volume assembles a harvest's downloaded PDFs into a single file.
package volume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// CollectPDFs returns the .pdf files directly under dir, sorted by filename
// (os.ReadDir order). Dot-prefixed files, meta.json, error.log, and nested
// directories are left out.
func CollectPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".pdf") || strings.HasPrefix(name, ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// MergeVolume merges the PDFs under dir into outFile and returns how many
// inputs went in. Zero inputs is an error; pdfcpu needs at least one.
func MergeVolume(dir, outFile string) (int, error) {
	inputs, err := CollectPDFs(dir)
	if err != nil {
		return 0, err
	}
	if len(inputs) == 0 {
		return 0, fmt.Errorf("no PDFs under %s to merge", dir)
	}
	if err := pdfapi.MergeCreateFile(inputs, outFile, false, nil); err != nil {
		return 0, fmt.Errorf("merging %d PDFs into %s: %w", len(inputs), outFile, err)
	}
	return len(inputs), nil
}
