package seo

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TruncateTitle fits s into max characters. It cuts at the last space when
// that space sits at or beyond 80% of max, otherwise it hard-cuts and appends
// an ellipsis.
func TruncateTitle(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	cut := runes[:max]
	if i := lastSpace(cut); i >= 0 && i*5 >= max*4 {
		return string(cut[:i])
	}
	if max < 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// TruncateDescription fits s into max characters by keeping whole sentences.
// When not even the first sentence fits it falls back to TruncateTitle.
func TruncateDescription(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	var result string
	for _, sentence := range sentences(s) {
		candidate := sentence
		if result != "" {
			candidate = result + " " + sentence
		}
		if utf8.RuneCountInString(candidate) > max {
			break
		}
		result = candidate
	}
	if result == "" {
		return TruncateTitle(s, max)
	}
	return result
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// sentences splits after '.', '!' or '?' when whitespace follows.
func sentences(s string) []string {
	runes := []rune(s)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".!?", runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}
