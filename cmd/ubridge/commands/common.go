package commands

import (
	"fmt"

	"github.com/valksor/go-updatebridge/internal/config"
	"github.com/valksor/go-updatebridge/internal/log"
	"github.com/valksor/go-updatebridge/internal/source"
)

// buildSource constructs the configured manifest source. Token resolution is
// best effort: public repositories work anonymously.
func buildSource(cfg *config.Config) (source.Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Source {
	case config.SourceHTTP:
		return source.NewHTTPSource(cfg.UpdateURL, !cfg.SkipCacheBust), nil

	case config.SourceGitHub:
		token, err := source.ResolveGitHubToken(cfg.GitHub.Token)
		if err != nil {
			log.Debug("no github token, using anonymous access")
		}

		return source.NewGitHubSource(token, cfg.GitHub.Owner, cfg.GitHub.Repo), nil

	case config.SourceGitLab:
		token, err := source.ResolveGitLabToken(cfg.GitLab.Token)
		if err != nil {
			log.Debug("no gitlab token, using anonymous access")
		}

		return source.NewGitLabSource(token, cfg.GitLab.Host, cfg.GitLab.Project)

	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
