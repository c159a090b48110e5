package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode           string         `yaml:"mode"`
	Store          Store          `yaml:"store"`
	Source         Source         `yaml:"source"`
	Ingestion      Ingestion      `yaml:"ingestion"`
	Cleaning       Cleaning       `yaml:"cleaning"`
	Classification Classification `yaml:"classification"`
	Report         Report         `yaml:"report"`
}

// Store selects the local store the loader replaces tables in and reports read from.
type Store struct {
	Driver        string `yaml:"driver"`
	SQLite        string `yaml:"sqlite"`
	Postgres      string `yaml:"postgres"`
	MySQL         string `yaml:"mysql"`
	Mongo         string `yaml:"mongo"`
	MongoDatabase string `yaml:"mongo_database"`
}

type Source struct {
	Kind            string        `yaml:"kind"`
	Project         string        `yaml:"project"`
	CredentialsFile string        `yaml:"credentials_file"`
	CSVDir          string        `yaml:"csv_dir"`
	Attempts        int           `yaml:"attempts"`
	Timeout         time.Duration `yaml:"timeout"`
}

type Ingestion struct {
	// Tables maps a local table name to the query that produces it.
	Tables map[string]string `yaml:"tables"`
}

type Rule struct {
	Match     string   `yaml:"match"`
	Tokens    []string `yaml:"tokens"`
	Canonical string   `yaml:"canonical"`
}

type Cleaning struct {
	DefaultCity  string `yaml:"default_city"`
	CityRules    []Rule `yaml:"city_rules"`
	ChannelRules []Rule `yaml:"channel_rules"`
}

type Classification struct {
	LookupFile string `yaml:"lookup_file"`
}

type Report struct {
	Table          string `yaml:"table"`
	MinCitySupport *int   `yaml:"min_city_support"`
	TopN           int    `yaml:"top_n"`
	SeasonalPeriod int    `yaml:"seasonal_period"`
	FillGaps       *bool  `yaml:"fill_gaps"`
}

func LoadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(file)
}

// Parse decodes YAML after expanding ${VAR} references from the environment.
func Parse(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), config); err != nil {
		return nil, err
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "development"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.SQLite == "" {
		c.Store.SQLite = "amin.db"
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = "sales"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = "bigquery"
	}
	if c.Source.Attempts < 1 {
		c.Source.Attempts = 1
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 10 * time.Minute
	}
	if c.Report.Table == "" {
		c.Report.Table = "sales"
	}
	if c.Report.MinCitySupport == nil {
		support := 9
		c.Report.MinCitySupport = &support
	}
	if c.Report.TopN == 0 {
		c.Report.TopN = 10
	}
	if c.Report.SeasonalPeriod == 0 {
		c.Report.SeasonalPeriod = 7
	}
	if c.Report.FillGaps == nil {
		fill := true
		c.Report.FillGaps = &fill
	}
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres", "mysql", "mongo":
	default:
		return fmt.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	switch c.Source.Kind {
	case "bigquery", "csv":
	default:
		return fmt.Errorf("config: unsupported source kind %q", c.Source.Kind)
	}
	for i, r := range append(append([]Rule{}, c.Cleaning.CityRules...), c.Cleaning.ChannelRules...) {
		switch r.Match {
		case "prefix", "suffix", "contains":
		default:
			return fmt.Errorf("config: rule %d has unsupported match %q", i, r.Match)
		}
		if len(r.Tokens) == 0 || r.Canonical == "" {
			return fmt.Errorf("config: rule %d needs tokens and a canonical value", i)
		}
	}
	if c.Report.MinCitySupport != nil && *c.Report.MinCitySupport < 0 {
		return fmt.Errorf("config: min_city_support must not be negative")
	}
	if c.Report.SeasonalPeriod < 2 {
		return fmt.Errorf("config: seasonal_period must be at least 2")
	}
	return nil
}

// DSN returns the connection string for the configured store driver.
func (c *Config) DSN() string {
	switch c.Store.Driver {
	case "postgres":
		return c.Store.Postgres
	case "mysql":
		return c.Store.MySQL
	case "mongo":
		return c.Store.Mongo
	default:
		return c.Store.SQLite
	}
}
