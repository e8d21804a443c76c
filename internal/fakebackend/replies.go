// ABOUTME: Reply generation and delta splitting for the fake backend
// ABOUTME: Echo replies include markdown so renderers have something to format

package fakebackend

import (
	"fmt"
	"strings"
)

// EchoReply answers with the input wrapped in a little markdown.
func EchoReply(input string) string {
	lower := strings.ToLower(input)
	if strings.Contains(lower, "markdown") || strings.Contains(lower, "list") {
		return "Here is a **markdown** response:\n\n- First item\n- Second item with `code`\n- Third item"
	}
	return fmt.Sprintf("Echo: **%s** - I received your message.", input)
}

// SplitWords cuts s into deltas at word starts, keeping the leading space
// with each word: "Hi there!" -> ["Hi", " there!"].
func SplitWords(s string) []string {
	var out []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] == ' ' && s[i-1] != ' ' {
			out = append(out, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// Fixed returns a Split function that ignores the reply and yields deltas.
func Fixed(deltas ...string) func(string) []string {
	return func(string) []string { return deltas }
}
