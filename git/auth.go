package git

import (
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/input-output-hk/catalyst-forge-libs/release/git/internal/auth"
)

// AuthProvider resolves authentication methods for remote operations.
type AuthProvider interface {
	// Method returns the transport.AuthMethod for the given remote URL.
	// Returns nil if no authentication is needed/available for this URL.
	Method(remoteURL string) (transport.AuthMethod, error)
}

// TokenAuth authenticates https remotes with an access token, optionally
// restricted to hosts such as "github.com" or "*.example.com".
//
//nolint:ireturn // providers are consumed through the interface
func TokenAuth(token string, hosts ...string) AuthProvider {
	return auth.NewTokenProvider(token, hosts...)
}

// SSHAgentAuth authenticates ssh remotes through the running SSH agent.
//
//nolint:ireturn // providers are consumed through the interface
func SSHAgentAuth() AuthProvider {
	return auth.NewSSHAgentProvider()
}

// SSHKeyAuth authenticates ssh remotes with a private key file.
//
//nolint:ireturn // providers are consumed through the interface
func SSHKeyAuth(keyPath, passphrase string) AuthProvider {
	return auth.NewSSHKeyProvider(keyPath, passphrase)
}

// ChainAuth tries providers in order and uses the first that yields a method.
//
//nolint:ireturn // providers are consumed through the interface
func ChainAuth(providers ...AuthProvider) AuthProvider {
	chain := make(auth.Chain, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			chain = append(chain, p)
		}
	}

	return chain
}
