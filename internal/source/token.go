package source

import "os"

// ResolveGitHubToken finds a GitHub token for the release listing.
// Priority order:
//  1. UBRIDGE_GITHUB_TOKEN env var
//  2. GITHUB_TOKEN env var
//  3. configToken (from config file)
func ResolveGitHubToken(configToken string) (string, error) {
	if token := os.Getenv("UBRIDGE_GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if configToken != "" {
		return configToken, nil
	}

	return "", ErrNoToken
}

// ResolveGitLabToken finds a GitLab token for the release listing.
// Priority order:
//  1. UBRIDGE_GITLAB_TOKEN env var
//  2. GITLAB_TOKEN env var
//  3. configToken (from config file)
func ResolveGitLabToken(configToken string) (string, error) {
	if token := os.Getenv("UBRIDGE_GITLAB_TOKEN"); token != "" {
		return token, nil
	}
	if token := os.Getenv("GITLAB_TOKEN"); token != "" {
		return token, nil
	}
	if configToken != "" {
		return configToken, nil
	}

	return "", ErrNoToken
}
