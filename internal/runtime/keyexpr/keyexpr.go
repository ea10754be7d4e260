// Package keyexpr implements the key-expression primitives underneath
// the graphflow token codec: the segment delimiter rules of the shared
// key space, the reversible name mangling that keeps a ROS-style name
// inside a single segment, and wildcard matching on segment boundaries.
package keyexpr

import "strings"

const (
	// Delimiter separates the segments of a key expression.
	Delimiter = "/"

	// SlashReplacement substitutes the delimiter inside mangled names.
	SlashReplacement = "%"

	// EmptyNamespaceSegment is emitted in place of the root namespace "/"
	// because the key space forbids empty segments.
	EmptyNamespaceSegment = "_"

	// AdminSpace prefixes every liveliness token, separating discovery
	// traffic from everything else on the key space.
	AdminSpace = "@ros2_lv"
)

// Mangle replaces every delimiter in name with SlashReplacement so the
// result occupies exactly one key-expression segment.
func Mangle(name string) string {
	return strings.ReplaceAll(name, Delimiter, SlashReplacement)
}

// Demangle is the exact inverse of Mangle for any input that does not
// itself contain SlashReplacement. ROS-style names never do.
func Demangle(name string) string {
	return strings.ReplaceAll(name, SlashReplacement, Delimiter)
}

// Split cuts key on the delimiter. Empty segments are preserved,
// including a trailing one, so that validation downstream can reject
// them explicitly instead of losing information here.
func Split(key string) []string {
	return strings.Split(key, Delimiter)
}

// Matches reports whether key matches pattern under the key space's
// wildcard rules: "*" matches exactly one segment, "**" matches zero or
// more segments, and every other pattern segment matches literally.
func Matches(pattern, key string) bool {
	return matchSegments(Split(pattern), Split(key))
}

func matchSegments(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "**":
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchSegments(pattern[1:], key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pattern[0] {
				return false
			}
		}
		pattern = pattern[1:]
		key = key[1:]
	}
	return len(key) == 0
}
