package models

import (
	"path"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NormalizeFilename maps a desired display name onto the safe storage
// charset and forces a .pdf extension. Applying it twice yields the same
// result as applying it once. An empty result means the name carried
// nothing usable, including names that reduce to a bare extension.
func NormalizeFilename(name string) string {
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); strings.EqualFold(ext, ".pdf") {
		base = base[:len(base)-len(ext)]
	}
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return ""
	}
	return base + ".pdf"
}
