// Package config holds the ubridge configuration file format and dotenv
// loading for source tokens.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source kinds recognized in the config file.
const (
	SourceHTTP   = "http"
	SourceGitHub = "github"
	SourceGitLab = "gitlab"
)

// Config holds all ubridge configuration.
type Config struct {
	// UpdateURL is the manifest base location for the http source.
	UpdateURL string `yaml:"update_url"`

	// Port for the protocol server. Zero picks a randomized port.
	Port int `yaml:"port"`

	// SkipCacheBust disables the one-time cache-busting parameter on the
	// first manifest fetch.
	SkipCacheBust bool `yaml:"skip_cache_bust"`

	// Source selects the manifest origin: http (default), github, gitlab.
	Source string `yaml:"source"`

	GitHub GitHubConfig `yaml:"github"`
	GitLab GitLabConfig `yaml:"gitlab"`
}

// GitHubConfig holds github source settings.
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Token string `yaml:"token"`
}

// GitLabConfig holds gitlab source settings.
type GitLabConfig struct {
	Host    string `yaml:"host"`
	Project string `yaml:"project"`
	Token   string `yaml:"token"`
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		Source: SourceHTTP,
	}
}

// Load reads a yaml config file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Source == "" {
		cfg.Source = SourceHTTP
	}

	return cfg, nil
}

// Validate checks that the selected source has what it needs.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceHTTP:
		if c.UpdateURL == "" {
			return fmt.Errorf("config: update_url is required for the http source")
		}
	case SourceGitHub:
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return fmt.Errorf("config: github.owner and github.repo are required")
		}
	case SourceGitLab:
		if c.GitLab.Project == "" {
			return fmt.Errorf("config: gitlab.project is required")
		}
	default:
		return fmt.Errorf("config: unknown source %q", c.Source)
	}

	return nil
}
