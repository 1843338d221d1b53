// Package changelog renders classified commits as markdown release notes in
// the conventional commits preset layout: a version header, a breaking
// changes section, then one section per visible commit type.
package changelog

import (
	"fmt"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/release/conventional"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// Writer renders commits for one version.
type Writer interface {
	Render(ctx Context, commits []conventional.Commit) (string, error)
}

// Context describes where links point and which version is rendered.
type Context struct {
	// Host is the scheme and host, e.g. "https://github.com".
	Host       string `yaml:"host"`
	Owner      string `yaml:"owner"`
	Repository string `yaml:"repository"`
	RepoURL    string `yaml:"repoUrl"`

	Version string `yaml:"-"`

	// Date is rendered verbatim. Empty means today.
	Date string `yaml:"-"`
}

// Validate checks that links can be built.
func (c Context) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Owner == "" {
		missing = append(missing, "owner")
	}
	if c.Repository == "" {
		missing = append(missing, "repository")
	}
	if c.RepoURL == "" {
		missing = append(missing, "repoUrl")
	}

	if len(missing) > 0 {
		return errors.WrapWithContext(nil, errors.CodeInvalidConfig,
			fmt.Sprintf("changelog context is missing %s", strings.Join(missing, ", ")),
			map[string]interface{}{"fields": missing})
	}

	return nil
}

// WithVersion returns a copy of c for version.
func (c Context) WithVersion(version string) Context {
	c.Version = version
	return c
}

func (c Context) commitURL(hash string) string {
	return fmt.Sprintf("%s/%s/%s/commit/%s", strings.TrimRight(c.Host, "/"), c.Owner, c.Repository, hash)
}

func (c Context) issueURL(owner, repository, issue string) string {
	if owner == "" {
		owner = c.Owner
	}
	if repository == "" {
		repository = c.Repository
	}

	return fmt.Sprintf("%s/%s/%s/issues/%s", strings.TrimRight(c.Host, "/"), owner, repository, issue)
}

// Section maps a commit type to a heading. Hidden sections are left out of
// the output unless a commit carries notes.
type Section struct {
	Type   string
	Title  string
	Hidden bool
}

// DefaultSections are the conventional commits preset types.
var DefaultSections = []Section{
	{Type: "feat", Title: "Features"},
	{Type: "feature", Title: "Features"},
	{Type: "fix", Title: "Bug Fixes"},
	{Type: "perf", Title: "Performance Improvements"},
	{Type: "revert", Title: "Reverts"},
	{Type: "docs", Title: "Documentation", Hidden: true},
	{Type: "style", Title: "Styles", Hidden: true},
	{Type: "chore", Title: "Miscellaneous Chores", Hidden: true},
	{Type: "refactor", Title: "Code Refactoring", Hidden: true},
	{Type: "test", Title: "Tests", Hidden: true},
	{Type: "build", Title: "Build System", Hidden: true},
	{Type: "ci", Title: "Continuous Integration", Hidden: true},
}
