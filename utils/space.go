package utils

import (
	"regexp"
	"strings"
)

// DefaultSpace is the space of records whose text carries no marker.
const DefaultSpace = "general"

const maxSpaceLength = 50

// spacePattern matches a leading "#name:" marker and the whitespace after it.
var spacePattern = regexp.MustCompile(`^\s*#([A-Za-z0-9_-]+):\s*`)

// ExtractSpace returns the lower-cased space named by the leading marker of text.
// Only the leading marker counts; "see #books: x" has no space.
func ExtractSpace(text string) (string, bool) {
	m := spacePattern.FindStringSubmatch(text)
	if m == nil || len(m[1]) > maxSpaceLength {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// RemoveSpacePattern strips the marker ExtractSpace accepts. Text without one
// is returned unchanged, and so is text that would be left blank.
func RemoveSpacePattern(text string) string {
	if _, ok := ExtractSpace(text); !ok {
		return text
	}
	cleaned := spacePattern.ReplaceAllString(text, "")
	if strings.TrimSpace(cleaned) == "" {
		return text
	}
	return cleaned
}

// SpaceOrDefault is ExtractSpace falling back to DefaultSpace.
func SpaceOrDefault(text string) string {
	if space, ok := ExtractSpace(text); ok {
		return space
	}
	return DefaultSpace
}
