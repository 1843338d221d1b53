package git

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// notesRef is where git stores notes shown by %N.
const notesRef = plumbing.ReferenceName("refs/notes/commits")

// Person is a commit author or committer.
type Person struct {
	Name  string
	Email string
}

// Commit is a commit as read from history.
type Commit struct {
	Hash    string
	Subject string
	Body    string
	Notes   string

	// Tags lists the tag names pointing at this commit, sorted.
	Tags []string

	// CommittedTimestamp is the committer date in epoch milliseconds.
	CommittedTimestamp int64

	Author    Person
	Committer Person
}

// ShortHash returns the abbreviated hash.
func (c Commit) ShortHash() string {
	return shortHash(c.Hash)
}

// Message reassembles subject and body.
func (c Commit) Message() string {
	if c.Body == "" {
		return c.Subject
	}

	return c.Subject + "\n\n" + c.Body
}

// logRange is a parsed commit range.
type logRange struct {
	from    string
	exclude string
	limit   int
}

// parseRange understands "rev", "since..", "since..until", "..until" and
// an optional "-N" limit in any position. An empty range means HEAD.
func parseRange(rng string) (logRange, error) {
	out := logRange{from: plumbing.HEAD.String()}

	for _, field := range strings.Fields(rng) {
		if n, ok := strings.CutPrefix(field, "-"); ok {
			limit, err := strconv.Atoi(n)
			if err != nil || limit < 0 {
				return logRange{}, WrapErrorf(ErrInvalidRef, "invalid limit %q", field)
			}
			out.limit = limit
			continue
		}

		if since, until, ok := strings.Cut(field, ".."); ok {
			out.exclude = since
			if until != "" {
				out.from = until
			}
			continue
		}

		out.from = field
	}

	return out, nil
}

// Commits returns the commits in rng, newest first by committer date.
//
// Context timeout/cancellation is honored while walking history.
func (r *Repo) Commits(ctx context.Context, rng string) ([]Commit, error) {
	lr, err := parseRange(rng)
	if err != nil {
		return nil, err
	}

	from, err := r.resolve(lr.from)
	if err != nil {
		return nil, err
	}

	excluded := map[plumbing.Hash]struct{}{}
	if lr.exclude != "" {
		since, err := r.resolve(lr.exclude)
		if err != nil {
			return nil, err
		}
		if excluded, err = r.ancestors(ctx, since); err != nil {
			return nil, err
		}
	}

	tags, err := r.tagsByCommit()
	if err != nil {
		return nil, err
	}

	notes, err := r.notes()
	if err != nil {
		return nil, err
	}

	iter, err := r.repo.Log(&git.LogOptions{From: from, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, WrapError(err, "failed to read commit log")
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, skip := excluded[c.Hash]; skip {
			return nil
		}

		commits = append(commits, toCommit(c, tags[c.Hash], notes(c.Hash)))
		if lr.limit > 0 && len(commits) >= lr.limit {
			return storer.ErrStop
		}

		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to walk commit log")
	}

	return commits, nil
}

// Log formats every commit in rng with format. Supported placeholders are
// %H %h %s %b %N %D %ct %an %ae %cn %ce and %%.
func (r *Repo) Log(ctx context.Context, rng, format string) ([]string, error) {
	commits, err := r.Commits(ctx, rng)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, formatCommit(c, format))
	}

	return out, nil
}

func formatCommit(c Commit, format string) string {
	var b strings.Builder

	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 == len(format) {
			b.WriteByte(format[i])
			continue
		}

		rest := format[i+1:]
		value, width := placeholder(c, rest)
		if width == 0 {
			b.WriteByte('%')
			continue
		}

		b.WriteString(value)
		i += width
	}

	return b.String()
}

func placeholder(c Commit, s string) (string, int) {
	if len(s) >= 2 {
		switch s[:2] {
		case "ct":
			return strconv.FormatInt(c.CommittedTimestamp/1000, 10), 2
		case "an":
			return c.Author.Name, 2
		case "ae":
			return c.Author.Email, 2
		case "cn":
			return c.Committer.Name, 2
		case "ce":
			return c.Committer.Email, 2
		}
	}

	switch s[0] {
	case 'H':
		return c.Hash, 1
	case 'h':
		return c.ShortHash(), 1
	case 's':
		return c.Subject, 1
	case 'b':
		return c.Body, 1
	case 'N':
		return c.Notes, 1
	case 'D':
		decorations := make([]string, 0, len(c.Tags))
		for _, t := range c.Tags {
			decorations = append(decorations, "tag: "+t)
		}
		return strings.Join(decorations, ", "), 1
	case '%':
		return "%", 1
	}

	return "", 0
}

func toCommit(c *object.Commit, tags []string, notes string) Commit {
	subject, body := splitMessage(c.Message)

	return Commit{
		Hash:               c.Hash.String(),
		Subject:            subject,
		Body:               body,
		Notes:              notes,
		Tags:               tags,
		CommittedTimestamp: c.Committer.When.UnixMilli(),
		Author:             Person{Name: c.Author.Name, Email: c.Author.Email},
		Committer:          Person{Name: c.Committer.Name, Email: c.Committer.Email},
	}
}

// splitMessage separates the subject paragraph from the body. Subject lines
// are joined with spaces like git's %s.
func splitMessage(message string) (string, string) {
	message = strings.TrimLeft(message, "\n")
	subject, body, _ := strings.Cut(message, "\n\n")

	subject = strings.Join(strings.Fields(strings.ReplaceAll(subject, "\n", " ")), " ")
	body = strings.TrimRight(body, "\n")

	return subject, body
}

// ancestors returns hash and every commit reachable from it.
func (r *Repo) ancestors(ctx context.Context, hash plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	iter, err := r.repo.Log(&git.LogOptions{From: hash})
	if err != nil {
		return nil, WrapError(err, "failed to read commit log")
	}
	defer iter.Close()

	seen := map[plumbing.Hash]struct{}{}
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to walk commit log")
	}

	return seen, nil
}

// tagsByCommit maps peeled commit hashes to the tag names pointing at them.
func (r *Repo) tagsByCommit() (map[plumbing.Hash][]string, error) {
	refs, err := r.repo.Tags()
	if err != nil {
		return nil, WrapError(err, "failed to list tags")
	}
	defer refs.Close()

	out := map[plumbing.Hash][]string{}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		hash, err := r.peel(ref.Hash())
		if err != nil {
			return nil
		}
		out[hash] = append(out[hash], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate tags")
	}

	for _, names := range out {
		sort.Strings(names)
	}

	return out, nil
}

// peel follows annotated tag objects down to the commit they point at.
func (r *Repo) peel(hash plumbing.Hash) (plumbing.Hash, error) {
	for {
		tag, err := r.repo.TagObject(hash)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			break
		}
		if err != nil {
			return plumbing.ZeroHash, err
		}
		hash = tag.Target
	}

	if _, err := r.repo.CommitObject(hash); err != nil {
		return plumbing.ZeroHash, err
	}

	return hash, nil
}

// notes returns a lookup over refs/notes/commits. Missing notes yield "".
func (r *Repo) notes() (func(plumbing.Hash) string, error) {
	none := func(plumbing.Hash) string { return "" }

	ref, err := r.repo.Reference(notesRef, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return none, nil
	}
	if err != nil {
		return nil, WrapError(err, "failed to read notes reference")
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, WrapError(err, "failed to read notes commit")
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, WrapError(err, "failed to read notes tree")
	}

	return func(h plumbing.Hash) string {
		name := h.String()
		for _, path := range []string{name, name[:2] + "/" + name[2:]} {
			f, err := tree.File(path)
			if err != nil {
				continue
			}
			contents, err := f.Contents()
			if err != nil {
				return ""
			}
			return strings.TrimRight(contents, "\n")
		}
		return ""
	}, nil
}

func shortHash(hash string) string {
	if len(hash) <= ShortHashLength {
		return hash
	}

	return hash[:ShortHashLength]
}
