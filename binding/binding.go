// Package binding substitutes ${column} references in label templates with
// values from an address record.
package binding

import (
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate replaces every ${name} in text with fields[name]. Unknown
// names resolve to the empty string: a template line like "${country}"
// must vanish for records without a country rather than print the literal
// placeholder on a sticker.
func Interpolate(text string, fields map[string]string) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return ""
		}
		name := strings.TrimSpace(groups[1])
		return fields[name]
	})
}
