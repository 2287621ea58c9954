package conversation

import (
	"context"
	"errors"

	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// FallbackCompleter retries a failed completion once on a second provider.
type FallbackCompleter struct {
	primary  Completer
	fallback Completer
	logger   *logging.Logger
}

// NewFallbackCompleter panics without a primary. A nil fallback makes it a
// pass-through.
func NewFallbackCompleter(primary, fallback Completer, logger *logging.Logger) *FallbackCompleter {
	if primary == nil {
		panic("conversation: primary completer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackCompleter{primary: primary, fallback: fallback, logger: logger}
}

// ModelID reports the primary's model.
func (c *FallbackCompleter) ModelID() string {
	if named, ok := c.primary.(modelNamer); ok {
		return named.ModelID()
	}
	return ""
}

func (c *FallbackCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	out, primaryErr := c.primary.Complete(ctx, req)
	if primaryErr == nil {
		return out, nil
	}
	// A spent deadline would fail the second provider too.
	if c.fallback == nil || ctx.Err() != nil {
		return nil, primaryErr
	}
	c.logger.Warn("completion failed, retrying on fallback provider", "error", primaryErr)

	out, err := c.fallback.Complete(ctx, req)
	if err != nil {
		return nil, errors.Join(primaryErr, err)
	}
	return out, nil
}
