package commands

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter(t *testing.T) {
	tests := []struct {
		name     string
		existing *string
		mode     WriteMode
		create   bool
		want     *string
	}{
		{name: "append by default", existing: strp("old\n"), want: strp("old\nnew\n")},
		{name: "prepend", existing: strp("old\n"), mode: ModePrepend, want: strp("new\nold\n")},
		{name: "replace", existing: strp("old\n"), mode: ModeReplace, want: strp("new\n")},
		{name: "replace empty file", existing: strp(""), mode: ModeReplace, want: strp("new\n")},
		{name: "create", create: true, want: strp("new\n")},
		{name: "missing without create", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			if tt.existing != nil {
				require.NoError(t, util.WriteFile(fs, "CHANGELOG.md", []byte(*tt.existing), 0o644))
			}

			c := NewFileWriter(FileWriterOptions{
				FS:      fs,
				Path:    "CHANGELOG.md",
				Content: "new\n",
				Mode:    tt.mode,
				Create:  tt.create,
			})
			assert.Equal(t, "FileWriter", c.Name())

			require.NoError(t, c.Do(context.Background()))
			assert.Equal(t, tt.want, readOptional(t, fs, "CHANGELOG.md"))

			require.NoError(t, c.Undo(context.Background()))
			assert.Equal(t, tt.existing, readOptional(t, fs, "CHANGELOG.md"))
		})
	}
}

func TestFileWriterUnknownMode(t *testing.T) {
	fs := memfs.New()
	c := NewFileWriter(FileWriterOptions{FS: fs, Path: "a.txt", Content: "x", Mode: "overwrite", Create: true})

	err := c.Do(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Unknown mode 'overwrite'", err.Error())
	assert.Nil(t, readOptional(t, fs, "a.txt"))
}

func TestFileWriterUndoWithoutDo(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "a.txt", []byte("keep"), 0o644))

	c := NewFileWriter(FileWriterOptions{FS: fs, Path: "a.txt", Content: "x"})
	require.NoError(t, c.Undo(context.Background()))
	assert.Equal(t, strp("keep"), readOptional(t, fs, "a.txt"))
}

func strp(s string) *string { return &s }

func readOptional(t *testing.T, fs billy.Filesystem, path string) *string {
	t.Helper()

	if _, err := fs.Stat(path); err != nil {
		return nil
	}

	data, err := util.ReadFile(fs, path)
	require.NoError(t, err)

	s := string(data)
	return &s
}
