package release

import (
	"fmt"
	"regexp"

	"github.com/input-output-hk/catalyst-forge-libs/release/conventional"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

var releaseTypes = regexp.MustCompile(`^(feat|fix|perf)$`)

// DefaultIsReleaseCommit accepts feat, fix and perf commits. A commit whose
// parser produced no type at all is rejected with a classification error so
// unknown formats never pass silently.
func DefaultIsReleaseCommit(c conventional.Commit) (bool, error) {
	if !c.HasType() {
		return false, errors.New(errors.CodeClassification, "Non supported conventional commit. Provide a custom filter.")
	}

	return releaseTypes.MatchString(c.TypeName()), nil
}

// WhatBump returns the release level for commits and a human readable reason.
// Any breaking change means major, any feature means minor, otherwise patch.
func WhatBump(commits []conventional.Commit) (Bump, string) {
	level := BumpPatch
	breakings, features := 0, 0

	for _, c := range commits {
		notes := len(c.Notes)
		if notes == 0 && c.Breaking {
			notes = 1
		}

		switch {
		case notes > 0:
			breakings += notes
			level = BumpMajor
		case c.TypeName() == "feat" || c.TypeName() == "feature":
			features++
			if level == BumpPatch {
				level = BumpMinor
			}
		}
	}

	if breakings == 1 {
		return level, fmt.Sprintf("There is %d BREAKING CHANGE and %d features", breakings, features)
	}

	return level, fmt.Sprintf("There are %d BREAKING CHANGES and %d features", breakings, features)
}
