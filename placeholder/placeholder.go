// Package placeholder resolves {name} tokens inside template strings.
package placeholder

import "regexp"

var (
	keyPattern        = regexp.MustCompile(`\{([^{}]+)\}`)
	unresolvedPattern = regexp.MustCompile(`\{[^}]+\}`)
)

// Replace substitutes every {key} whose key is present in ctx. The scan is a
// single pass: replacement text is never rescanned, so the result does not
// depend on the order in which keys are considered. Unknown tokens are kept.
func Replace(s string, ctx map[string]string) string {
	if len(ctx) == 0 {
		return s
	}
	return keyPattern.ReplaceAllStringFunc(s, func(token string) string {
		if v, ok := ctx[token[1:len(token)-1]]; ok {
			return v
		}
		return token
	})
}

// Strip removes every remaining {...} token.
func Strip(s string) string {
	return unresolvedPattern.ReplaceAllString(s, "")
}

// Resolve replaces known tokens, then strips whatever is left.
func Resolve(s string, ctx map[string]string) string {
	return Strip(Replace(s, ctx))
}

// Keys lists the distinct placeholder names found in s, in order of first appearance.
func Keys(s string) []string {
	matches := keyPattern.FindAllStringSubmatch(s, -1)
	seen := make(map[string]bool, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}
