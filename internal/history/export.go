// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/freeplane-helper/pkg/types"
)

// ExportYAML writes up to limit records, newest first, as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	records, err := s.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes up to limit records, newest first, as an indented JSON
// array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, limit int) error {
	records, err := s.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	if records == nil {
		records = []types.ConversionRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
