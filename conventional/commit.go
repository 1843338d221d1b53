package conventional

import (
	"time"
)

// BreakingChangeTitle is the note title used for breaking changes.
const BreakingChangeTitle = "BREAKING CHANGE"

// RawCommit is the input to a Parser.
type RawCommit struct {
	Hash      string
	Message   string
	Tags      []string
	Committed time.Time
}

// Note is a titled footer such as "BREAKING CHANGE: drops node 14".
type Note struct {
	Title string
	Text  string
}

// Reference is an issue mentioned in a commit message.
type Reference struct {
	// Action is the closing keyword, if any ("Closes", "fixes").
	Action string

	// Owner and Repository are set for cross repository references.
	Owner      string
	Repository string

	Issue  string
	Prefix string
	Raw    string
}

// Commit is a classified commit.
type Commit struct {
	Hash string

	// Type is nil when the parser produced no type at all, and points to an
	// empty string when the message does not follow the grammar.
	Type *string

	Scope   string
	Subject string
	Header  string
	Body    string

	// Breaking is set by "!" after the type or scope.
	Breaking bool

	Notes      []Note
	References []Reference

	Tags []string
	Date time.Time
}

// TypeName returns the type or "" when absent.
func (c Commit) TypeName() string {
	if c.Type == nil {
		return ""
	}

	return *c.Type
}

// HasType reports whether the parser set a type, even an empty one.
func (c Commit) HasType() bool {
	return c.Type != nil
}

// IsBreaking reports whether the commit carries a breaking change.
func (c Commit) IsBreaking() bool {
	if c.Breaking {
		return true
	}
	for _, n := range c.Notes {
		if n.Title == BreakingChangeTitle {
			return true
		}
	}

	return false
}

// Issues returns the issue identifiers referenced by the commit, in order of
// appearance and without duplicates.
func (c Commit) Issues() []string {
	seen := make(map[string]struct{}, len(c.References))
	out := make([]string, 0, len(c.References))
	for _, r := range c.References {
		if r.Issue == "" {
			continue
		}
		if _, ok := seen[r.Issue]; ok {
			continue
		}
		seen[r.Issue] = struct{}{}
		out = append(out, r.Issue)
	}

	return out
}

// StringPtr returns a pointer to s. Handy for building commits by hand.
func StringPtr(s string) *string {
	return &s
}
