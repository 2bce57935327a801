package rtl433

import (
	"context"
	"time"

	"github.com/heivi/rtl-433/internal/clock"
)

// AnalyzeOptions configures decoding.
type AnalyzeOptions struct {
	// Device restricts decoding to one registered decoder.
	Device string
	// Now overrides the wall clock used to timestamp records.
	Now func() time.Time
}

func (opts AnalyzeOptions) toInternal(ctx context.Context) context.Context {
	if opts.Now != nil {
		ctx = clock.WithNow(ctx, opts.Now)
	}
	return ctx
}
