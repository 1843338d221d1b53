package auth

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// SSHProvider authenticates ssh remotes with a private key file or the SSH agent.
type SSHProvider struct {
	// Username defaults to "git".
	Username string

	// KeyPath selects a private key file. When empty the SSH agent is used.
	KeyPath    string
	Passphrase string

	// HostKeyCallback overrides known_hosts verification.
	HostKeyCallback gossh.HostKeyCallback

	// AllowedHosts restricts the provider to matching hosts. Empty allows all.
	AllowedHosts []string
}

// NewSSHAgentProvider returns a provider backed by SSH_AUTH_SOCK.
func NewSSHAgentProvider() *SSHProvider {
	return &SSHProvider{Username: "git"}
}

// NewSSHKeyProvider returns a provider backed by a private key file.
func NewSSHKeyProvider(keyPath, passphrase string) *SSHProvider {
	return &SSHProvider{Username: "git", KeyPath: keyPath, Passphrase: passphrase}
}

// Method implements Provider.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *SSHProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	scheme, host, err := endpoint(remoteURL)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "ssh", "git+ssh":
	default:
		return nil, nil
	}

	if !hostAllowed(host, p.AllowedHosts) {
		return nil, nil
	}

	user := p.Username
	if user == "" {
		user = "git"
	}

	if p.KeyPath == "" {
		agent, err := ssh.NewSSHAgentAuth(user)
		if err != nil {
			return nil, fmt.Errorf("failed to create SSH agent auth: %w", err)
		}
		if p.HostKeyCallback != nil {
			agent.HostKeyCallback = p.HostKeyCallback
		}
		return agent, nil
	}

	if _, err := os.Stat(p.KeyPath); err != nil {
		return nil, fmt.Errorf("SSH private key file is not readable: %w", err)
	}

	keys, err := ssh.NewPublicKeysFromFile(user, p.KeyPath, p.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from file: %w", err)
	}
	if p.HostKeyCallback != nil {
		keys.HostKeyCallback = p.HostKeyCallback
	}

	return keys, nil
}
