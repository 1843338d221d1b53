// Package conventional classifies commit messages following the Conventional
// Commits grammar (type(scope)!: subject).
//
// The default Parser is built on github.com/leodido/go-conventionalcommits in
// free-form, best-effort mode. Messages that do not follow the grammar are not
// errors: they come back with an empty Type so callers can decide what to do
// with them. Issue references ("closes #12", "owner/repo#3") are extracted from
// the whole message.
package conventional
