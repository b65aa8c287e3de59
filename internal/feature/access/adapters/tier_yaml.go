// Package adapters loads the subscription tier table from YAML.
package adapters

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"indicator_backend/internal/feature/access/domain/entity"
	indentity "indicator_backend/internal/feature/indicators/domain/entity"
)

//go:embed tiers.yaml
var defaultTiers []byte

// EnvKeyTiersConfig names the environment variable pointing at a tier table file.
const EnvKeyTiersConfig = "TIERS_CONFIG"

type tierFile struct {
	Tiers []tierRecord `yaml:"tiers"`
}

type tierRecord struct {
	Name              string   `yaml:"name"`
	Indicators        []string `yaml:"indicators"`
	MaxSpanDays       *int     `yaml:"max_span_days"`
	SpanLabel         string   `yaml:"span_label"`
	MaxRequestsPerDay *int     `yaml:"max_requests_per_day"`
}

// DefaultTable returns the built-in free/pro/premium table.
func DefaultTable() (entity.Table, error) {
	return ParseTable(defaultTiers)
}

// LoadTable reads the tier table from TIERS_CONFIG, falling back to the built-in table when unset.
func LoadTable() (entity.Table, error) {
	path := os.Getenv(EnvKeyTiersConfig)
	if path == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tier config: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML tier table.
func ParseTable(data []byte) (entity.Table, error) {
	var f tierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tier config: %w", err)
	}
	if len(f.Tiers) == 0 {
		return nil, errors.New("tier config: no tiers defined")
	}

	table := make(entity.Table, len(f.Tiers))
	for _, rec := range f.Tiers {
		if rec.Name == "" {
			return nil, errors.New("tier config: tier without name")
		}
		if _, dup := table[rec.Name]; dup {
			return nil, fmt.Errorf("tier config: duplicate tier %q", rec.Name)
		}
		if rec.MaxSpanDays != nil && *rec.MaxSpanDays < 0 {
			return nil, fmt.Errorf("tier config: %s: max_span_days must not be negative", rec.Name)
		}
		if rec.MaxRequestsPerDay != nil && *rec.MaxRequestsPerDay < 0 {
			return nil, fmt.Errorf("tier config: %s: max_requests_per_day must not be negative", rec.Name)
		}

		inds := make([]indentity.Indicator, 0, len(rec.Indicators))
		for _, name := range rec.Indicators {
			ind, ok := indentity.ParseIndicator(name)
			if !ok {
				return nil, fmt.Errorf("tier config: %s: unknown indicator %q", rec.Name, name)
			}
			inds = append(inds, ind)
		}

		table[rec.Name] = entity.TierConfig{
			Name:              rec.Name,
			Indicators:        inds,
			MaxSpanDays:       rec.MaxSpanDays,
			SpanLabel:         rec.SpanLabel,
			MaxRequestsPerDay: rec.MaxRequestsPerDay,
		}
	}
	return table, nil
}
