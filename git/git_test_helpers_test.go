package git

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

var (
	remotesOnce sync.Once
	remotes     = server.MapLoader{}
	remoteSeq   int

	// commits get strictly increasing committer dates so date ordering is stable
	testClock = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
)

// setupTestRepo creates an empty in-memory repository.
func setupTestRepo(t *testing.T) *Repo {
	t.Helper()

	r, err := Init(context.Background(), &Options{FS: memfs.New()})
	require.NoError(t, err)

	return r
}

// setupTestRepoWithCommit creates an in-memory repository with one commit on master.
func setupTestRepoWithCommit(t *testing.T) (*Repo, string) {
	t.Helper()

	r := setupTestRepo(t)
	hash := commitFile(t, r, "README.md", "# test\n", "chore: initial commit")

	return r, hash
}

// commitFile writes path, stages it and commits it with message.
func commitFile(t *testing.T, r *Repo, path, content, message string) string {
	t.Helper()

	writeFile(t, r, path, content)
	require.NoError(t, r.Add(context.Background(), path))

	testClock = testClock.Add(time.Minute)
	hash, err := r.Commit(context.Background(), message, &Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  testClock,
	})
	require.NoError(t, err)

	return hash
}

func writeFile(t *testing.T, r *Repo, path, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(r.Worktree(), path, []byte(content), 0o644))
}

func readFile(t *testing.T, r *Repo, path string) string {
	t.Helper()
	data, err := util.ReadFile(r.Worktree(), path)
	require.NoError(t, err)
	return string(data)
}

// setupRemote registers an empty in-process remote and adds it to r as origin.
// Tests using it must not run in parallel.
func setupRemote(t *testing.T, r *Repo) *memory.Storage {
	t.Helper()

	remotesOnce.Do(func() {
		client.InstallProtocol("mem", server.NewClient(remotes))
	})

	remoteSeq++
	url := fmt.Sprintf("mem://origin-%d", remoteSeq)
	st := memory.NewStorage()
	remotes[url] = st

	require.NoError(t, r.AddRemote(context.Background(), DefaultRemoteName, url))

	return st
}
