package device

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/heivi/rtl-433/internal/bitbuffer"
)

// Decoder turns one demodulated capture into the fields of a decoded
// event. A decoder that does not find its frame in the capture returns a
// *Rejection error.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, buf *bitbuffer.Buffer) (map[string]any, error)
}

var (
	mu       sync.RWMutex
	decoders = map[string]Decoder{}
)

// Register adds d to the decoder registry. Device packages call it from
// an init function; registering a name twice panics.
func Register(d Decoder) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := decoders[d.Name()]; dup {
		panic("device: duplicate decoder " + d.Name())
	}
	decoders[d.Name()] = d
}

// Lookup returns the decoder registered under name.
func Lookup(name string) (Decoder, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("no decoder registered for %q", name)
	}
	return d, nil
}

// All returns the registered decoders sorted by name.
func All() []Decoder {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Decoder, 0, len(decoders))
	for _, d := range decoders {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
