package metrics

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/llm"
)

var (
	PagesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagegen_pages_generated_total",
			Help: "Total number of pages generated",
		},
		[]string{"page_type", "model"},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagegen_generation_failures_total",
			Help: "Total number of failed generation requests",
		},
		[]string{"kind"},
	)

	SlotDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagegen_slot_duration_seconds",
			Help:    "Duration of content generator calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagegen_tokens_used_total",
			Help: "Total number of tokens reported by content generators",
		},
		[]string{"model"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pagegen_step_duration_seconds",
			Help: "Duration of generation pipeline steps in seconds",
		},
		[]string{"step"},
	)

	ActiveGenerations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagegen_generations_active",
			Help: "Number of generation requests in progress",
		},
	)
)

// ObserveFailure counts err under its error kind, or "internal" when it has none.
func ObserveFailure(err error) {
	if err == nil {
		return
	}
	kind := "internal"
	if k, ok := errs.KindOf(err); ok {
		kind = k.String()
	}
	GenerationFailures.WithLabelValues(kind).Inc()
}

type instrumented struct {
	gen   llm.Generator
	model string
}

// Instrument records call latency and token usage for gen.
func Instrument(gen llm.Generator, model string) llm.Generator {
	return &instrumented{gen: gen, model: model}
}

func (i *instrumented) Generate(ctx context.Context, prompt string) (llm.Completion, error) {
	start := time.Now()
	res, err := i.gen.Generate(ctx, prompt)
	SlotDuration.WithLabelValues(i.model).Observe(time.Since(start).Seconds())
	if err == nil {
		TokensUsed.WithLabelValues(i.model).Add(float64(res.TokensUsed))
	}
	return res, err
}

func (i *instrumented) Close() error {
	if c, ok := i.gen.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
