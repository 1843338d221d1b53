package conventional

import (
	"regexp"
	"strings"
)

const issuePrefix = "#"

var (
	referencePattern = regexp.MustCompile(`(?:([\w.\-]+)/([\w.\-]+))?#([\w\-]*\d+)`)
	actionSuffix     = regexp.MustCompile(`(?i)\b(close[sd]?|fix(?:e[sd])?|resolve[sd]?)\s*:?\s*$`)
	listSeparator    = regexp.MustCompile(`(?i)^\s*(?:,|and|&)?\s*$`)
)

// FindReferences extracts issue references from text. A closing keyword
// applies to the comma separated list that follows it ("closes #1, #2").
func FindReferences(text string) []Reference {
	matches := referencePattern.FindAllStringSubmatchIndex(text, -1)
	refs := make([]Reference, 0, len(matches))

	var action string
	prevEnd := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		hash := m[6] - 1

		// "&#39;" and similar entities.
		if hash > 0 && text[hash-1] == '&' {
			continue
		}
		// The owner/repo form must not be glued to a preceding word.
		if m[2] >= 0 && start > 0 && isWordByte(text[start-1]) {
			continue
		}

		gap := text[prevEnd:start]
		switch {
		case actionSuffix.MatchString(gap):
			action = actionSuffix.FindStringSubmatch(gap)[1]
		case action != "" && listSeparator.MatchString(gap):
		default:
			action = ""
		}

		ref := Reference{
			Action: action,
			Issue:  text[m[6]:m[7]],
			Prefix: issuePrefix,
			Raw:    strings.TrimSpace(text[start:end]),
		}
		if m[2] >= 0 {
			ref.Owner = text[m[2]:m[3]]
			ref.Repository = text[m[4]:m[5]]
		}

		refs = append(refs, ref)
		prevEnd = end
	}

	return refs
}

func isWordByte(b byte) bool {
	return b == '_' || b == '-' || b == '.' ||
		('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
