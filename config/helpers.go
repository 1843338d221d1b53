package config

import (
	"net/url"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/release/changelog"
)

// Regenerate reports whether the changelog is rewritten from every version.
func (c *Config) Regenerate() bool {
	return c.RegenerateChangelog == nil || *c.RegenerateChangelog
}

// ChangelogContext returns the changelog link context with unset fields
// derived from the GitHub settings.
func (c *Config) ChangelogContext() changelog.Context {
	ctx := c.Changelog

	if ctx.Host == "" {
		host := c.GitHub.Host
		if host == "" {
			host = DefaultGitHubHost
		}
		ctx.Host = "https://" + host
	}
	if ctx.Owner == "" {
		ctx.Owner = c.GitHub.Owner
	}
	if ctx.Repository == "" {
		ctx.Repository = c.GitHub.Repo
	}
	if ctx.RepoURL == "" && ctx.Owner != "" && ctx.Repository != "" {
		ctx.RepoURL = strings.TrimSuffix(ctx.Host, "/") + "/" + ctx.Owner + "/" + ctx.Repository
	}

	return ctx
}

// GitHubURLs returns the API and upload base URLs of a GitHub Enterprise
// host. Both are empty for github.com.
func (c *Config) GitHubURLs() (base, upload string) {
	host := c.GitHub.Host
	if host == "" || host == DefaultGitHubHost {
		return "", ""
	}

	return "https://" + host + "/api/v3/", "https://" + host + "/api/uploads/"
}

// ParseRemoteURL extracts owner and repository from a git remote URL in
// scp-like (git@host:owner/repo.git) or URL form.
func ParseRemoteURL(remote string) (owner, repo string, ok bool) {
	remote = strings.TrimSuffix(strings.TrimSpace(remote), ".git")

	var p string
	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil {
			return "", "", false
		}
		p = u.Path
	} else {
		i := strings.Index(remote, ":")
		if i < 0 {
			return "", "", false
		}
		p = remote[i+1:]
	}

	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", false
	}

	return parts[len(parts)-2], parts[len(parts)-1], true
}
