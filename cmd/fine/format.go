package main

import "strings"

func bar(pct int) string {
	return strings.Repeat("#", pct/5)
}

// shortID keeps the first 8 characters; ResolvePostID accepts it back
func shortID(id string) string {
	r := []rune(id)
	if len(r) > 8 {
		return string(r[:8])
	}
	return id
}

// truncate cuts s to max runes so multi-byte text stays valid
func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
