// Package match provides the case-insensitive matchers shared by command
// resolution, help listing and variable-name lookup.
package match

import "strings"

// Wildcard reports whether name matches pattern, ignoring case. '*' in the
// pattern matches any run of characters, including the empty one; every
// other byte must match exactly.
func Wildcard(pattern, name string) bool {
	return wildcard(strings.ToUpper(pattern), strings.ToUpper(name))
}

func wildcard(pattern, name string) bool {
	for len(pattern) > 0 {
		if pattern[0] == '*' {
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if pattern == "" {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if wildcard(pattern, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 || pattern[0] != name[0] {
			return false
		}
		pattern = pattern[1:]
		name = name[1:]
	}
	return len(name) == 0
}

// Abbrev reports whether query is a non-empty case-insensitive prefix of
// name. An exact match is a prefix of itself.
func Abbrev(query, name string) bool {
	if query == "" || len(query) > len(name) {
		return false
	}
	return strings.EqualFold(query, name[:len(query)])
}
