package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveUnknownFieldRemoved(t *testing.T) {
	out := Resolve("Welcome to {business_name}, est. {unknown_field}", map[string]string{"business_name": "Acme"})
	assert.Equal(t, "Welcome to Acme, est. ", out)
}

func TestResolveEmptyContextStripsTokens(t *testing.T) {
	out := Resolve("Call {phone} or mail {email} today", nil)
	assert.Equal(t, "Call  or mail  today", out)
}

func TestResolveNoPlaceholders(t *testing.T) {
	s := "plain text with } and { but no tokens"
	assert.Equal(t, s, Resolve(s, map[string]string{"a": "b"}))
}

func TestReplaceIsSinglePass(t *testing.T) {
	ctx := map[string]string{
		"a": "{b}",
		"b": "B",
	}
	// Replacement text is never rescanned.
	assert.Equal(t, "{b} B", Replace("{a} {b}", ctx))
}

func TestResolveOrderIndependent(t *testing.T) {
	ctx1 := map[string]string{}
	ctx1["foo"] = "F"
	ctx1["bar"] = "B"
	ctx2 := map[string]string{}
	ctx2["bar"] = "B"
	ctx2["foo"] = "F"

	s := "{bar}-{foo}-{bar}{foo}"
	for i := 0; i < 20; i++ {
		assert.Equal(t, "B-F-BF", Resolve(s, ctx1))
		assert.Equal(t, Resolve(s, ctx1), Resolve(s, ctx2))
	}
}

func TestReplaceLiteralDollar(t *testing.T) {
	out := Resolve("Price: {price}", map[string]string{"price": "$1 per $2"})
	assert.Equal(t, "Price: $1 per $2", out)
}

func TestReplaceNestedBrace(t *testing.T) {
	// The inner token is a valid key, the dangling brace has no closing pair.
	out := Resolve("{x {name}", map[string]string{"name": "Acme"})
	assert.Equal(t, "{x Acme", out)
}

func TestEmptyBracesKept(t *testing.T) {
	assert.Equal(t, "a {} b", Resolve("a {} b", nil))
}

func TestKeys(t *testing.T) {
	keys := Keys("{business_name} - {hero_headline} | {business_name}")
	assert.Equal(t, []string{"business_name", "hero_headline"}, keys)
}
