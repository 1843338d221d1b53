package auth

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// TokenUsername is the basic-auth user GitHub expects alongside an access token.
const TokenUsername = "x-access-token"

// TokenProvider authenticates https remotes with an access token.
type TokenProvider struct {
	token string

	// AllowedHosts restricts the token to matching hosts. Empty allows all.
	AllowedHosts []string
}

// NewTokenProvider creates a provider for token. An empty token declines every URL.
func NewTokenProvider(token string, allowedHosts ...string) *TokenProvider {
	return &TokenProvider{token: token, AllowedHosts: allowedHosts}
}

// Method implements Provider.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *TokenProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	if p.token == "" {
		return nil, nil
	}

	scheme, host, err := endpoint(remoteURL)
	if err != nil {
		return nil, err
	}

	if scheme != "https" && scheme != "http" {
		return nil, nil
	}

	if !hostAllowed(host, p.AllowedHosts) {
		return nil, nil
	}

	return &http.BasicAuth{Username: TokenUsername, Password: p.token}, nil
}
