package changelog

import (
	"bytes"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/release/conventional"
)

const dateLayout = "2006-01-02"

const markdownTemplate = `## {{.Version}} ({{.Date}})
{{range .NoteGroups}}
### ⚠ {{.Title}}

{{range .Notes}}* {{if .Scope}}**{{.Scope}}:** {{end}}{{.Text}}
{{end}}{{end}}{{range .Groups}}
### {{.Title}}

{{range .Commits}}* {{if .Scope}}**{{.Scope}}:** {{end}}{{.Subject}}{{if .URL}} ([{{.ShortHash}}]({{.URL}})){{end}}{{if .Closes}}, closes {{join .Closes ", "}}{{end}}
{{end}}{{end}}`

var markdown = template.Must(template.New("changelog").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(markdownTemplate))

type noteView struct {
	Scope string
	Text  string
}

type noteGroupView struct {
	Title string
	Notes []noteView
}

type commitView struct {
	Scope     string
	Subject   string
	ShortHash string
	URL       string
	Closes    []string
}

type groupView struct {
	Title   string
	Commits []commitView
}

type document struct {
	Version    string
	Date       string
	NoteGroups []noteGroupView
	Groups     []groupView
}

// MarkdownWriter is the default Writer.
type MarkdownWriter struct {
	sections map[string]Section
	now      func() time.Time
}

// Option configures a MarkdownWriter.
type Option func(*MarkdownWriter)

// WithSections replaces DefaultSections.
func WithSections(sections []Section) Option {
	return func(w *MarkdownWriter) {
		w.sections = indexSections(sections)
	}
}

// WithNow sets the clock used when Context.Date is empty.
func WithNow(now func() time.Time) Option {
	return func(w *MarkdownWriter) {
		w.now = now
	}
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter(opts ...Option) *MarkdownWriter {
	w := &MarkdownWriter{
		sections: indexSections(DefaultSections),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Render implements Writer.
func (w *MarkdownWriter) Render(ctx Context, commits []conventional.Commit) (string, error) {
	if err := ctx.Validate(); err != nil {
		return "", err
	}

	doc := document{
		Version: ctx.Version,
		Date:    ctx.Date,
	}
	if doc.Date == "" {
		doc.Date = w.now().UTC().Format(dateLayout)
	}

	var notes []noteView
	groups := map[string][]commitView{}

	for _, c := range commits {
		for _, n := range c.Notes {
			notes = append(notes, noteView{Scope: c.Scope, Text: n.Text})
		}

		section, ok := w.sections[c.TypeName()]
		if !ok || section.Hidden {
			continue
		}

		groups[section.Title] = append(groups[section.Title], commitEntry(ctx, c))
	}

	if len(notes) > 0 {
		sort.SliceStable(notes, func(i, j int) bool { return notes[i].Text < notes[j].Text })
		doc.NoteGroups = []noteGroupView{{Title: "BREAKING CHANGES", Notes: notes}}
	}

	titles := make([]string, 0, len(groups))
	for title := range groups {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	for _, title := range titles {
		entries := groups[title]
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Scope != entries[j].Scope {
				return entries[i].Scope < entries[j].Scope
			}
			return entries[i].Subject < entries[j].Subject
		})
		doc.Groups = append(doc.Groups, groupView{Title: title, Commits: entries})
	}

	var buf bytes.Buffer
	if err := markdown.Execute(&buf, doc); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// commitEntry links references found in the subject in place and lists the
// rest as "closes".
func commitEntry(ctx Context, c conventional.Commit) commitView {
	entry := commitView{Scope: c.Scope, Subject: c.Subject}

	if c.Hash != "" {
		entry.ShortHash = c.Hash
		if len(c.Hash) > 7 {
			entry.ShortHash = c.Hash[:7]
		}
		entry.URL = ctx.commitURL(c.Hash)
	}

	// References come in message order, so subject ones are consumed left to
	// right before any from the body.
	cursor := 0
	seen := map[string]struct{}{}
	for _, ref := range c.References {
		if _, ok := seen[ref.Raw]; ok {
			continue
		}
		seen[ref.Raw] = struct{}{}

		link := "[" + ref.Raw + "](" + ctx.issueURL(ref.Owner, ref.Repository, ref.Issue) + ")"
		if i := strings.Index(entry.Subject[cursor:], ref.Raw); i >= 0 {
			at := cursor + i
			entry.Subject = entry.Subject[:at] + link + entry.Subject[at+len(ref.Raw):]
			cursor = at + len(link)
			continue
		}
		entry.Closes = append(entry.Closes, link)
	}

	return entry
}

func indexSections(sections []Section) map[string]Section {
	out := make(map[string]Section, len(sections))
	for _, s := range sections {
		out[s.Type] = s
	}

	return out
}
