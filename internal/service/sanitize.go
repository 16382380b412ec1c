package service

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	unsafeDisplayChars = regexp.MustCompile(`[<>:"/\\|?*;&$` + "`" + `]`)
	unsafeKeyChars     = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

const maxNameLen = 200

// SanitizeFilename makes a user supplied name safe to display and log: path
// separators, shell metacharacters and control characters become "_".
// Leading dots are dropped so the result is never hidden or relative.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)
	name = unsafeDisplayChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(strings.TrimSpace(name), ".")
	if len(name) > maxNameLen {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = truncateUTF8(name[:len(name)-len(ext)], maxNameLen-len(ext)) + ext
	}
	return name
}

// keySegment reduces s to a single storage key segment of [A-Za-z0-9._-].
func keySegment(s string) string {
	s = unsafeKeyChars.ReplaceAllString(s, "_")
	s = strings.TrimLeft(s, ".")
	if s == "" {
		return "_"
	}
	return s
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
