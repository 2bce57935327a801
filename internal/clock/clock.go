package clock

import (
	"context"
	"time"
)

type nowKey struct{}

// WithNow returns a context carrying now as the wall clock used when
// timestamping decoded records.
func WithNow(ctx context.Context, now func() time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

// Now reads the wall clock carried by ctx, falling back to the system
// clock.
func Now(ctx context.Context) time.Time {
	if now, ok := ctx.Value(nowKey{}).(func() time.Time); ok {
		return now()
	}
	return time.Now()
}

// Millis converts t to milliseconds since the Unix epoch, rounding the
// sub-millisecond remainder half up.
func Millis(t time.Time) int64 {
	return t.Unix()*1000 + int64(t.Nanosecond()+500000)/1000000
}
