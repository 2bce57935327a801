package whitening

import (
	"bytes"
	"testing"
)

// pn9 runs the CC110x whitening generator: a 9 bit LFSR with taps at
// bits 5 and 0, seeded all ones, emitting its low byte every 8 shifts.
func pn9(n int) []byte {
	out := make([]byte, n)
	state := uint16(0x1ff)
	for i := range out {
		out[i] = byte(state)
		for j := 0; j < 8; j++ {
			bit := (state>>5 ^ state) & 1
			state = state>>1 | bit<<8
		}
	}
	return out
}

func TestTableMatchesGenerator(t *testing.T) {
	zeros := make([]byte, 18)
	got, err := Apply(zeros)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := pn9(18)
	if !bytes.Equal(got, want) {
		t.Fatalf("table %x does not match generator %x", got, want)
	}
}

func TestInvolution(t *testing.T) {
	src := []byte{0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39, 0x00, 0x64, 0xe7}
	once, err := Apply(src)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if bytes.Equal(once, src) {
		t.Fatal("whitening left the frame unchanged")
	}
	twice, err := Apply(once)
	if err != nil {
		t.Fatalf("apply twice: %v", err)
	}
	if !bytes.Equal(twice, src) {
		t.Fatalf("double apply = %x, want %x", twice, src)
	}
}

func TestApplyCopies(t *testing.T) {
	src := []byte{0x00, 0x00}
	out, err := Apply(src)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	out[0] = 0xaa
	if src[0] != 0x00 {
		t.Fatal("apply aliased its input")
	}
}

func TestApplyTooLong(t *testing.T) {
	if _, err := Apply(make([]byte, 19)); err == nil {
		t.Fatal("expected error for frame longer than the sequence")
	}
	if out, err := Apply(nil); err != nil || len(out) != 0 {
		t.Fatalf("empty frame: %x, %v", out, err)
	}
}
