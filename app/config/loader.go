package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of scraper definitions
type Loader struct {
	scrapersDir string
}

func NewLoader(scrapersDir string) *Loader {
	return &Loader{scrapersDir: scrapersDir}
}

// LoadAll loads all YAML definition files from the scrapers directory,
// sorted by known ID. A missing directory yields an empty list.
func (l *Loader) LoadAll() ([]Definition, error) {
	if _, err := os.Stat(l.scrapersDir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.scrapersDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.scrapersDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	seen := make(map[string]string)
	var defs []Definition
	for _, file := range files {
		def, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(def); err != nil {
			return nil, fmt.Errorf("invalid definition %s: %w", file, err)
		}

		if prev, ok := seen[def.KnownID]; ok {
			return nil, fmt.Errorf("duplicate known_id %q in %s (already defined in %s)", def.KnownID, file, prev)
		}
		seen[def.KnownID] = file

		defs = append(defs, *def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].KnownID < defs[j].KnownID })

	return defs, nil
}

func (l *Loader) loadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&def)

	return &def, nil
}

func (l *Loader) setDefaults(def *Definition) {
	if def.Interval == 0 {
		def.Interval = 86400 // seconds
	}
	if def.Timeout == 0 {
		def.Timeout = 30 // seconds
	}
}

func (l *Loader) validate(def *Definition) error {
	if def.KnownID == "" {
		return fmt.Errorf("known_id is required")
	}
	if def.Name == "" {
		return fmt.Errorf("name is required")
	}
	if def.URL == "" {
		return fmt.Errorf("url is required")
	}
	switch def.Type {
	case "feed", "page", "api":
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown type %q", def.Type)
	}
	if def.Interval < 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}
