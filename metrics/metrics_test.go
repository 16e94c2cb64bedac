package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/llm"
)

type fixedGenerator struct {
	res llm.Completion
	err error
}

func (f fixedGenerator) Generate(ctx context.Context, prompt string) (llm.Completion, error) {
	return f.res, f.err
}

func TestInstrumentCountsTokens(t *testing.T) {
	before := testutil.ToFloat64(TokensUsed.WithLabelValues("metrics-test"))

	gen := Instrument(fixedGenerator{res: llm.Completion{Text: "ok", TokensUsed: 12}}, "metrics-test")
	res, err := gen.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)

	failing := Instrument(fixedGenerator{err: errors.New("boom")}, "metrics-test")
	_, err = failing.Generate(context.Background(), "prompt")
	assert.Error(t, err)

	assert.Equal(t, before+12, testutil.ToFloat64(TokensUsed.WithLabelValues("metrics-test")))
}

func TestObserveFailureByKind(t *testing.T) {
	notFound := testutil.ToFloat64(GenerationFailures.WithLabelValues("not_found"))
	internal := testutil.ToFloat64(GenerationFailures.WithLabelValues("internal"))

	ObserveFailure(errs.NotFound(errs.CodeTemplateNotFound, "Template not found."))
	ObserveFailure(errors.New("disk full"))
	ObserveFailure(nil)

	assert.Equal(t, notFound+1, testutil.ToFloat64(GenerationFailures.WithLabelValues("not_found")))
	assert.Equal(t, internal+1, testutil.ToFloat64(GenerationFailures.WithLabelValues("internal")))
}
