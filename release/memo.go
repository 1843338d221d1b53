package release

import (
	"sync"
)

// memoKey names one cached computation.
type memoKey string

const (
	keyBranchName      memoKey = "branch_name"
	keyTags            memoKey = "tags"
	keyPreReleaseID    memoKey = "pre_release_id"
	keyCommits         memoKey = "conventional_commits"
	keyVersionsCommits memoKey = "versions_conventional_commits"
	keyVersions        memoKey = "versions"
	keyChangelog       memoKey = "changelog"
	keyNextVersion     memoKey = "next_version"
	keyMentionedIssues memoKey = "mentioned_issues"
	keyPreviousVersion memoKey = "previous_version"
	keyChangelogPrefix memoKey = "changelog_"
)

func changelogKey(version string) memoKey {
	return keyChangelogPrefix + memoKey(version)
}

type memoEntry struct {
	once  sync.Once
	value any
	err   error
}

// memo caches results per engine. Concurrent callers of the same key wait for
// the first computation.
type memo struct {
	mu      sync.Mutex
	entries map[memoKey]*memoEntry
}

func newMemo() *memo {
	return &memo{entries: map[memoKey]*memoEntry{}}
}

func (m *memo) entry(key memoKey) *memoEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &memoEntry{}
		m.entries[key] = e
	}

	return e
}

func memoize[T any](m *memo, key memoKey, compute func() (T, error)) (T, error) {
	e := m.entry(key)
	e.once.Do(func() {
		e.value, e.err = compute()
	})

	if e.err != nil {
		var zero T
		return zero, e.err
	}

	return e.value.(T), nil
}
