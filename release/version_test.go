package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/release/conventional"
)

func TestCleanVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "v1.2.3", want: "1.2.3"},
		{in: " =v1.2.3 ", want: "1.2.3"},
		{in: "1.2.3-beta.1+build.5", want: "1.2.3-beta.1"},
		{in: "=1.2.3", want: "1.2.3"},
		{in: "vv1.2.3", wantErr: true},
		{in: "=v=1.2.3", wantErr: true},
		{in: "==1.2.3", wantErr: true},
		{in: "1.2", wantErr: true},
		{in: "01.2.3", wantErr: true},
		{in: "release-1", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanVersion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, ValidVersion(tt.in))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrereleaseID(t *testing.T) {
	assert.Equal(t, "", PrereleaseID("v1.0.0"))
	assert.Equal(t, "beta", PrereleaseID("v1.0.0-beta.2"))
	assert.Equal(t, "rc", PrereleaseID("1.0.0-rc"))
	assert.Equal(t, "", PrereleaseID("garbage"))
}

func TestSortDescending(t *testing.T) {
	names := []string{"v1.0.0", "v1.10.0", "v1.2.0", "v1.10.0-beta.1", "v1.10.0-beta.10", "v1.10.0-beta.2"}
	SortDescending(names)

	assert.Equal(t, []string{"v1.10.0", "v1.10.0-beta.10", "v1.10.0-beta.2", "v1.10.0-beta.1", "v1.2.0", "v1.0.0"}, names)
}

func TestIncrement(t *testing.T) {
	tests := []struct {
		name    string
		version string
		bump    Bump
		preID   string
		want    string
	}{
		{name: "patch", version: "1.2.3", bump: BumpPatch, want: "1.2.4"},
		{name: "minor", version: "1.2.3", bump: BumpMinor, want: "1.3.0"},
		{name: "major", version: "1.2.3", bump: BumpMajor, want: "2.0.0"},
		{name: "patch of pre-release drops it", version: "1.2.4-beta.1", bump: BumpPatch, want: "1.2.4"},
		{name: "minor of minor pre-release", version: "1.3.0-beta.1", bump: BumpMinor, want: "1.3.0"},
		{name: "minor of patch pre-release", version: "1.2.4-beta.1", bump: BumpMinor, want: "1.3.0"},
		{name: "major of major pre-release", version: "2.0.0-rc.0", bump: BumpMajor, want: "2.0.0"},
		{name: "pre-release from stable", version: "1.0.0", bump: BumpMajor, preID: "beta", want: "1.0.1-beta.0"},
		{name: "pre-release continues", version: "1.0.1-beta.0", bump: BumpPatch, preID: "beta", want: "1.0.1-beta.1"},
		{name: "pre-release switches id", version: "1.0.1-alpha.4", bump: BumpPatch, preID: "beta", want: "1.0.1-beta.0"},
		{name: "pre-release without number", version: "1.0.1-beta", bump: BumpPatch, preID: "beta", want: "1.0.1-beta.0"},
		{name: "prefix tolerated", version: "v0.1.0", bump: BumpPatch, want: "0.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Increment(tt.version, tt.bump, tt.preID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Increment("nope", BumpPatch, "")
	require.Error(t, err)
	assert.Equal(t, "semantic version is 'nope' is not valid", err.Error())
}

func TestWhatBump(t *testing.T) {
	typed := func(typ string, breaking bool, notes ...conventional.Note) conventional.Commit {
		return conventional.Commit{Type: conventional.StringPtr(typ), Subject: "s", Breaking: breaking, Notes: notes}
	}

	tests := []struct {
		name       string
		commits    []conventional.Commit
		want       Bump
		wantReason string
	}{
		{
			name:       "fixes only",
			commits:    []conventional.Commit{typed("fix", false), typed("perf", false)},
			want:       BumpPatch,
			wantReason: "There are 0 BREAKING CHANGES and 0 features",
		},
		{
			name:       "feature",
			commits:    []conventional.Commit{typed("fix", false), typed("feat", false), typed("feature", false)},
			want:       BumpMinor,
			wantReason: "There are 0 BREAKING CHANGES and 2 features",
		},
		{
			name:       "bang without notes",
			commits:    []conventional.Commit{typed("feat", false), typed("fix", true)},
			want:       BumpMajor,
			wantReason: "There is 1 BREAKING CHANGE and 1 features",
		},
		{
			name: "notes win over features",
			commits: []conventional.Commit{
				typed("feat", false, conventional.Note{Title: "BREAKING CHANGE", Text: "a"}, conventional.Note{Title: "BREAKING CHANGE", Text: "b"}),
				typed("feat", false),
			},
			want:       BumpMajor,
			wantReason: "There are 2 BREAKING CHANGES and 1 features",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := WhatBump(tt.commits)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
