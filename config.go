package gtfs2neo4j

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Neo4jConfig struct {
	URI      string `yaml:"uri" validate:"required,uri"`
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type ImportConfig struct {
	Delimiter     string `yaml:"delimiter" validate:"omitempty,len=1"`
	ClipFeature   string `yaml:"clipFeature" validate:"omitempty,file"`
	ProgressEvery int    `yaml:"progressEvery" validate:"gte=-1"`
}

// Config configures the command line tool. When SQLite is set the graph is
// written to that file and Neo4j is not used.
type Config struct {
	Neo4j  Neo4jConfig  `yaml:"neo4j"`
	SQLite string       `yaml:"sqlite"`
	Import ImportConfig `yaml:"import"`
}

var envVars = map[string]func(c *Config, v string){
	"NEO4J_URI":      func(c *Config, v string) { c.Neo4j.URI = v },
	"NEO4J_USERNAME": func(c *Config, v string) { c.Neo4j.Username = v },
	"NEO4J_PASSWORD": func(c *Config, v string) { c.Neo4j.Password = v },
	"NEO4J_DATABASE": func(c *Config, v string) { c.Neo4j.Database = v },
	"GTFS_DELIMITER": func(c *Config, v string) { c.Import.Delimiter = v },
}

// LoadConfig reads a YAML config file. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment variables that are set.
func (c *Config) ApplyEnv() {
	for name, set := range envVars {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			set(c, v)
		}
	}
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.Import); err != nil {
		return err
	}
	// neo4j is only needed if not writing to sqlite
	if c.SQLite == "" {
		if err := v.Struct(c.Neo4j); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) ImportOpts() (*ImportOpts, error) {
	opts := &ImportOpts{ProgressEvery: c.Import.ProgressEvery}
	if c.Import.Delimiter != "" {
		r, _ := utf8.DecodeRuneInString(c.Import.Delimiter)
		if !validDelimiter(r) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDelimiter, c.Import.Delimiter)
		}
		opts.Delimiter = r
	}
	if c.Import.ClipFeature != "" {
		feature, err := os.ReadFile(c.Import.ClipFeature)
		if err != nil {
			return nil, err
		}
		opts.ClipFeature = string(feature)
	}
	return opts, nil
}

func (c *Config) Neo4jOpts() Neo4jOpts {
	return Neo4jOpts{
		URI:      c.Neo4j.URI,
		Username: c.Neo4j.Username,
		Password: c.Neo4j.Password,
		Database: c.Neo4j.Database,
	}
}
