// Package config loads the immutable run configuration: repository host and
// credentials, source endpoints, community ids, and local paths. The config
// is an explicit object handed to the driver at construction; nothing in the
// program reads ambient global state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full tool configuration.
type Config struct {
	Repository Repository `yaml:"repository"`
	Sources    Sources    `yaml:"sources"`

	// ArtifactDir receives failure artifacts for manual reprocessing.
	ArtifactDir string `yaml:"artifact_dir"`

	// JournalPath is the SQLite outcome journal. Empty disables journaling.
	JournalPath string `yaml:"journal_path"`

	// HTTPTimeout bounds every source and repository request.
	HTTPTimeout Duration `yaml:"http_timeout"`
}

// Duration is a time.Duration that unmarshals from the "30s" string form.
type Duration time.Duration

// UnmarshalYAML parses a duration string node.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", node.Value, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Repository configures the target records repository.
type Repository struct {
	Host  string `yaml:"host"`
	Token string `yaml:"token"`

	// Communities maps record kind to the community a record is submitted
	// to. Proposals and publications land in different collections.
	Communities Communities `yaml:"communities"`
}

// Communities holds the per-kind target community ids.
type Communities struct {
	Proposals    string `yaml:"proposals"`
	Publications string `yaml:"publications"`
}

// Sources configures the upstream source-of-record endpoints.
type Sources struct {
	ProposalURL    string `yaml:"proposal_url"`
	PublicationURL string `yaml:"publication_url"`
}

// Environment variables overriding file values. The token in particular
// should come from the environment, not the config file.
const (
	EnvHost  = "RDMSYNC_HOST"
	EnvToken = "RDMSYNC_TOKEN"
)

// Default source endpoints at the MIS portal.
const (
	defaultProposalURL    = "https://misportal.jlab.org/pacProposals/proposals/download.json"
	defaultPublicationURL = "https://misportal.jlab.org/sti/publications/search.json"
)

// Load reads the YAML config at path, applies environment overrides and
// defaults, and validates. An empty path yields a config built from
// environment and defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if host := os.Getenv(EnvHost); host != "" {
		cfg.Repository.Host = host
	}
	if token := os.Getenv(EnvToken); token != "" {
		cfg.Repository.Token = token
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sources.ProposalURL == "" {
		c.Sources.ProposalURL = defaultProposalURL
	}
	if c.Sources.PublicationURL == "" {
		c.Sources.PublicationURL = defaultPublicationURL
	}
	if c.ArtifactDir == "" {
		c.ArtifactDir = "failed-records"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = Duration(30 * time.Second)
	}
}

// Validate checks that the fields every sync run needs are present.
func (c *Config) Validate() error {
	if c.Repository.Host == "" {
		return fmt.Errorf("repository.host is required (or set %s)", EnvHost)
	}
	if c.Repository.Token == "" {
		return fmt.Errorf("repository.token is required (or set %s)", EnvToken)
	}
	return nil
}
