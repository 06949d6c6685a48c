package config

// Definition is one scraper definition loaded from a YAML file in the
// scrapers directory. The known ID is the stable identifier used for
// registration, scheduling and run history.
type Definition struct {
	KnownID     string   `yaml:"known_id"`
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"` // feed, page or api
	URL         string   `yaml:"url"`
	Interval    int      `yaml:"interval"` // seconds
	Active      bool     `yaml:"active"`
	Notify      bool     `yaml:"notify"`
	Description string   `yaml:"description"`
	Widgets     []string `yaml:"widgets"`
	Fields      []string `yaml:"fields"`  // api type: top-level fields to extract
	Timeout     int      `yaml:"timeout"` // seconds
}
