package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := NotFound(CodeTemplateNotFound, "Template not found.")
	wrapped := fmt.Errorf("load template 7: %w", base)

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindUpstream))
	assert.Equal(t, "Template not found.", Message(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestUpstreamUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upstream(CodeUpstreamRequestFailed, "OpenAI request failed.", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "OpenAI request failed.: connection reset", err.Error())
	assert.Equal(t, "upstream", err.Kind.String())
}
