package llm

import (
	"context"
	"io"

	"github.com/santiagomed/pagegen/logger"
	tellm "github.com/santiagomed/tellm/sdk"
)

type batchKey struct{}

// WithBatch tags ctx so that completions made under it are logged as one batch.
func WithBatch(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchKey{}, batchID)
}

func batchFrom(ctx context.Context) string {
	id, _ := ctx.Value(batchKey{}).(string)
	return EnsureBatchID(id)
}

// usageLogger records every successful completion with tellm.
type usageLogger struct {
	next        Generator
	tellmClient *tellm.Client
	modelName   string
	logger      logger.Logger
}

// WithUsageLog wraps gen so each completion is logged to the tellm server at
// url. Logging failures are reported as warnings and never fail generation.
func WithUsageLog(gen Generator, url, modelName string, log logger.Logger) Generator {
	return &usageLogger{
		next:        gen,
		tellmClient: tellm.NewClient(url),
		modelName:   modelName,
		logger:      log,
	}
}

func (u *usageLogger) Generate(ctx context.Context, prompt string) (Completion, error) {
	c, err := u.next.Generate(ctx, prompt)
	if err != nil {
		return c, err
	}
	if err := u.tellmClient.Log(batchFrom(ctx), prompt, c.Text); err != nil {
		u.logger.WithField("warning", err).Warn("failed to log to tellm")
	}
	return c, nil
}

// Close closes the wrapped generator when it holds a connection.
func (u *usageLogger) Close() error {
	if c, ok := u.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
