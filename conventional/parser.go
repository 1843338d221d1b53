package conventional

import (
	"regexp"
	"strings"

	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// Parser classifies raw commits.
type Parser interface {
	Parse(raw RawCommit) (Commit, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(raw RawCommit) (Commit, error)

// Parse calls f.
func (f ParserFunc) Parse(raw RawCommit) (Commit, error) {
	return f(raw)
}

var (
	revertHeader = regexp.MustCompile(`^Revert\s+"(.+)"\s*$`)
	wordType     = regexp.MustCompile(`^\w*$`)
	breakingLine = regexp.MustCompile(`^BREAKING[ -]CHANGE:\s*(.*)$`)
)

// DefaultParser parses messages with go-conventionalcommits.
// It is safe for concurrent use.
type DefaultParser struct {
	types conventionalcommits.TypeConfig
}

// ParserOption configures a DefaultParser.
type ParserOption func(*DefaultParser)

// WithTypes restricts the accepted commit types. Defaults to free-form.
func WithTypes(t conventionalcommits.TypeConfig) ParserOption {
	return func(p *DefaultParser) {
		p.types = t
	}
}

// NewParser creates a DefaultParser.
func NewParser(opts ...ParserOption) *DefaultParser {
	p := &DefaultParser{types: conventionalcommits.TypesFreeForm}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse never fails on malformed messages. They come back with an empty type
// and the header as subject.
func (p *DefaultParser) Parse(raw RawCommit) (Commit, error) {
	message := strings.TrimSpace(strings.ReplaceAll(raw.Message, "\r\n", "\n"))
	header, body := splitHeader(message)

	c := Commit{
		Hash:    raw.Hash,
		Header:  header,
		Body:    body,
		Subject: header,
		Tags:    raw.Tags,
		Date:    raw.Committed,
	}

	var footers map[string][]string
	if m := revertHeader.FindStringSubmatch(header); m != nil {
		c.Type = StringPtr("revert")
		c.Subject = m[1]
	} else if cc := p.parse(message); cc != nil {
		c.Type = StringPtr(cc.Type)
		c.Subject = cc.Description
		c.Breaking = cc.Exclamation
		if cc.Scope != nil {
			c.Scope = *cc.Scope
		}
		footers = cc.Footers
	} else {
		c.Type = StringPtr("")
	}

	c.Notes = notes(footers, body)
	if c.Breaking && len(c.Notes) == 0 {
		c.Notes = []Note{{Title: BreakingChangeTitle, Text: c.Subject}}
	}
	c.References = FindReferences(message)

	return c, nil
}

// parse tries the whole message first and falls back to the header alone, so
// a body the grammar rejects does not lose the type.
func (p *DefaultParser) parse(message string) *conventionalcommits.ConventionalCommit {
	candidates := []string{message}
	if header, _ := splitHeader(message); header != message {
		candidates = append(candidates, header)
	}

	for _, candidate := range candidates {
		machine := parser.NewMachine(parser.WithTypes(p.types), parser.WithBestEffort())

		msg, _ := machine.Parse([]byte(candidate))
		if msg == nil || !msg.Ok() {
			continue
		}
		// Free-form types accept anything before ": ". Only a single word is
		// a commit type.
		if cc, ok := msg.(*conventionalcommits.ConventionalCommit); ok && wordType.MatchString(cc.Type) {
			return cc
		}
	}

	return nil
}

func splitHeader(message string) (string, string) {
	header, rest, _ := strings.Cut(message, "\n")

	return strings.TrimSpace(header), strings.TrimSpace(rest)
}

func notes(footers map[string][]string, body string) []Note {
	if values := footers["breaking-change"]; len(values) > 0 {
		out := make([]Note, 0, len(values))
		for _, v := range values {
			out = append(out, Note{Title: BreakingChangeTitle, Text: strings.TrimSpace(v)})
		}

		return out
	}

	var out []Note
	for _, line := range strings.Split(body, "\n") {
		if m := breakingLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			out = append(out, Note{Title: BreakingChangeTitle, Text: m[1]})
		}
	}

	return out
}
