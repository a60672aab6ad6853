package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type License struct {
	Type string `yaml:"type"`
	URL  string `yaml:"url"`
}

type Provider struct {
	Name  string   `yaml:"name"`
	Roles []string `yaml:"roles"`
	URL   string   `yaml:"url"`
}

// Dataset describes one imagery collection of the catalog (naip, gflandsat,
// landtrendr, ...). API is the Earth Engine endpoint used by the data factory.
type Dataset struct {
	Description string     `yaml:"description"`
	API         string     `yaml:"api"`
	License     License    `yaml:"license"`
	Providers   []Provider `yaml:"providers"`
}

// Label describes the label extension attributes attached to stand items.
type Label struct {
	Date       string   `yaml:"date"`
	Task       string   `yaml:"task"`
	Type       string   `yaml:"type"`
	Name       string   `yaml:"name"`
	Properties []string `yaml:"properties"`
	Classes    []string `yaml:"classes"`
}

// Agency describes one stand-map producing agency (blm, dnr, odf, ...).
type Agency struct {
	Description string   `yaml:"description"`
	License     License  `yaml:"license"`
	Provider    Provider `yaml:"provider"`
	Label       Label    `yaml:"label"`
}

type Config struct {
	CatalogID          string             `yaml:"catalog_id"`
	CatalogTitle       string             `yaml:"catalog_title"`
	CatalogDescription string             `yaml:"catalog_description"`
	Grid               string             `yaml:"grid"`
	DataDir            string             `yaml:"data_dir"`
	LabelsSubdir       string             `yaml:"labels_subdir"`
	AssetBaseURL       string             `yaml:"asset_base_url"`
	Workers            int                `yaml:"workers"`
	Datasets           map[string]Dataset `yaml:"datasets"`
	Agencies           map[string]Agency  `yaml:"agencies"`
}

// LabelDate parses the agency's nominal label date. An empty or malformed
// date falls back to Jan 1 of the label year, which is what the catalog
// builder supplies.
func (a Agency) LabelDate(fallbackYear int) time.Time {
	if a.Label.Date != "" {
		if t, err := time.Parse("2006-01-02", a.Label.Date); err == nil {
			return t
		}
	}
	return time.Date(fallbackYear, 1, 1, 0, 0, 0, 0, time.UTC)
}

// Load reads config.yaml from dir and applies defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	conf := &Config{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if conf.Workers == 0 {
		conf.Workers = 8
	}
	if conf.LabelsSubdir == "" {
		conf.LabelsSubdir = "stands"
	}
	if conf.CatalogID == "" {
		return nil, fmt.Errorf("config %s is missing catalog_id", path)
	}
	return conf, nil
}
