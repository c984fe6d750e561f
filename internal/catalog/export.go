// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/anthology-harvester/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes the records matching opts to path as YAML. It supports
// the same filters as List.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions, path string) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the records matching opts to path as JSON. It supports
// the same filters as List.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions, path string) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportRecords(ctx context.Context, opts QueryOptions) ([]types.CatalogRecord, error) {
	if opts.Limit <= 0 {
		opts.Limit = exportLimit
	}
	records, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	return records, nil
}
