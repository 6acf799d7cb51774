package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Region identifies a balancing authority whose demand observations are
// fetched independently. Code is the EIA respondent facet value.
type Region struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Regions represents the full region list configuration.
type Regions struct {
	Regions []Region `yaml:"regions"`
}

// LoadRegions loads the region list from the given path.
func LoadRegions(path string) (*Regions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions file: %w", err)
	}
	var cfg Regions
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse regions file: %w", err)
	}
	if len(cfg.Regions) == 0 {
		return nil, fmt.Errorf("regions file contains no regions")
	}
	for i, r := range cfg.Regions {
		if r.Code == "" {
			return nil, fmt.Errorf("regions[%d] is missing a code", i)
		}
	}
	return &cfg, nil
}

// Codes returns the region codes in file order.
func (r *Regions) Codes() []string {
	codes := make([]string, 0, len(r.Regions))
	for _, region := range r.Regions {
		codes = append(codes, region.Code)
	}
	return codes
}
