package release

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Bump is a release level.
type Bump int

const (
	BumpMajor Bump = iota
	BumpMinor
	BumpPatch
)

func (b Bump) String() string {
	switch b {
	case BumpMajor:
		return "major"
	case BumpMinor:
		return "minor"
	case BumpPatch:
		return "patch"
	default:
		return "unknown"
	}
}

// ParseVersion parses a tag or version string. One leading "=", then one
// leading "v", and surrounding whitespace are tolerated, nothing else is.
func ParseVersion(s string) (*semver.Version, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "=")
	trimmed = strings.TrimPrefix(trimmed, "v")

	v, err := semver.StrictNewVersion(strings.TrimSpace(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%s is not a semantic version: %w", s, err)
	}

	return v, nil
}

// ValidVersion reports whether s parses as a version.
func ValidVersion(s string) bool {
	_, err := ParseVersion(s)
	return err == nil
}

// CleanVersion normalizes s, dropping any prefix and build metadata.
func CleanVersion(s string) (string, error) {
	v, err := ParseVersion(s)
	if err != nil {
		return "", err
	}

	return semver.New(v.Major(), v.Minor(), v.Patch(), v.Prerelease(), "").String(), nil
}

// PrereleaseID returns the first pre-release identifier of s, or "".
func PrereleaseID(s string) string {
	v, err := ParseVersion(s)
	if err != nil || v.Prerelease() == "" {
		return ""
	}

	id, _, _ := strings.Cut(v.Prerelease(), ".")
	return id
}

// SortDescending orders tag names newest first. Names must be valid.
func SortDescending(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, _ := ParseVersion(names[i])
		b, _ := ParseVersion(names[j])
		return a.Compare(b) > 0
	})
}

// Increment computes the next version. With a pre-release id the result is a
// pre-release on that id, otherwise bump applies.
func Increment(version string, bump Bump, preReleaseID string) (string, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return "", fmt.Errorf("semantic version is '%s' is not valid", version)
	}

	major, minor, patch := v.Major(), v.Minor(), v.Patch()
	pre := splitPrerelease(v.Prerelease())

	if preReleaseID != "" {
		if len(pre) == 0 {
			patch++
		}
		pre = incPrerelease(pre, preReleaseID)

		return semver.New(major, minor, patch, strings.Join(pre, "."), "").String(), nil
	}

	switch bump {
	case BumpMajor:
		if minor != 0 || patch != 0 || len(pre) == 0 {
			major++
		}
		minor, patch = 0, 0
	case BumpMinor:
		if patch != 0 || len(pre) == 0 {
			minor++
		}
		patch = 0
	case BumpPatch:
		if len(pre) == 0 {
			patch++
		}
	default:
		return "", fmt.Errorf("unknown bump %d", bump)
	}

	return semver.New(major, minor, patch, "", "").String(), nil
}

// incPrerelease bumps the last numeric identifier, then moves to id if the
// identifier changed.
func incPrerelease(pre []string, id string) []string {
	if len(pre) == 0 {
		pre = []string{"0"}
	} else {
		bumped := false
		for i := len(pre) - 1; i >= 0; i-- {
			if n, err := strconv.ParseUint(pre[i], 10, 64); err == nil {
				pre[i] = strconv.FormatUint(n+1, 10)
				bumped = true
				break
			}
		}
		if !bumped {
			pre = append(pre, "0")
		}
	}

	if pre[0] != id {
		return []string{id, "0"}
	}
	if len(pre) < 2 {
		return []string{id, "0"}
	}
	if _, err := strconv.ParseUint(pre[1], 10, 64); err != nil {
		return []string{id, "0"}
	}

	return pre
}

func splitPrerelease(pre string) []string {
	if pre == "" {
		return nil
	}

	return strings.Split(pre, ".")
}
