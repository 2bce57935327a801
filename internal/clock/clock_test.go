package clock

import (
	"context"
	"testing"
	"time"
)

func TestNowDefault(t *testing.T) {
	before := time.Now()
	got := Now(context.Background())
	if got.Before(before) {
		t.Fatalf("Now went backwards: %v < %v", got, before)
	}
}

func TestWithNow(t *testing.T) {
	fixed := time.Unix(1700000000, 123)
	ctx := WithNow(context.Background(), func() time.Time { return fixed })
	if got := Now(ctx); !got.Equal(fixed) {
		t.Fatalf("Now = %v, want %v", got, fixed)
	}
}

func TestMillis(t *testing.T) {
	cases := []struct {
		sec  int64
		nsec int64
		want int64
	}{
		{10, 0, 10000},
		{10, 1499999, 10001},
		{10, 1500000, 10002},
		{10, 999499999, 10999},
		{10, 999500000, 11000},
	}
	for _, c := range cases {
		if got := Millis(time.Unix(c.sec, c.nsec)); got != c.want {
			t.Fatalf("Millis(%d,%d) = %d, want %d", c.sec, c.nsec, got, c.want)
		}
	}
}
