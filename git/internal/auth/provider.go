// Package auth resolves go-git transport credentials for the release remote.
// Providers decline a URL they cannot serve by returning a nil method, which
// lets a Chain fall through to the next provider.
package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Provider returns the transport.AuthMethod to use for a remote URL.
type Provider interface {
	Method(remoteURL string) (transport.AuthMethod, error)
}

// Chain tries providers in order and returns the first non-nil method.
type Chain []Provider

// Method implements Provider.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (c Chain) Method(remoteURL string) (transport.AuthMethod, error) {
	var errs []string

	for _, p := range c {
		if p == nil {
			continue
		}

		method, err := p.Method(remoteURL)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if method != nil {
			return method, nil
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("no credentials for %s: %s", remoteURL, strings.Join(errs, "; "))
	}

	return nil, nil
}

// endpoint splits a remote URL into scheme and host (without port).
// scp-like addresses such as git@github.com:owner/repo.git are reported as ssh.
func endpoint(remoteURL string) (scheme, host string, err error) {
	if !strings.Contains(remoteURL, "://") {
		at := strings.Index(remoteURL, "@")
		colon := strings.Index(remoteURL, ":")
		if at >= 0 && colon > at {
			return "ssh", remoteURL[at+1 : colon], nil
		}
	}

	u, err := url.Parse(remoteURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}

	return u.Scheme, u.Hostname(), nil
}

// matchesHost reports whether host matches pattern. A leading "*." matches
// the domain and any of its subdomains.
func matchesHost(host, pattern string) bool {
	if host == pattern {
		return true
	}

	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	}

	return false
}

func hostAllowed(host string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	for _, pattern := range allowed {
		if matchesHost(host, pattern) {
			return true
		}
	}

	return false
}
