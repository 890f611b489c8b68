package slug

import (
	"regexp"
	"strings"
)

const maxLen = 64

var (
	plusSign    = strings.NewReplacer("+", " plus ", "#", " sharp ", "&", " and ")
	nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)
)

// Make turns a display name into a file-safe name. "C++" becomes
// "c-plus-plus" so distinct subjects do not collide on "c".
func Make(input string) string {
	s := plusSign.Replace(strings.ToLower(strings.TrimSpace(input)))
	s = strings.Trim(nonAlphaNum.ReplaceAllString(s, "-"), "-")
	if len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
