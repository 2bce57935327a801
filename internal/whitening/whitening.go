package whitening

import "fmt"

// Whitening sequence of the CC110x PN9 generator (TI DN509). The radio
// XORs payload bytes against this sequence on air; XOR is its own
// inverse, so Apply both whitens and dewhitens.
var table = [18]byte{
	0xff, 0xe1, 0x1d, 0x9a, 0xed, 0x85, 0x33, 0x24, 0xea,
	0x7a, 0xd2, 0x39, 0x70, 0x97, 0x57, 0x0a, 0x54, 0x7d,
}

// Apply XORs src against the whitening sequence and returns the result as
// a fresh slice. src is left unmodified.
func Apply(src []byte) ([]byte, error) {
	if len(src) > len(table) {
		return nil, fmt.Errorf("frame of %d bytes exceeds whitening sequence of %d", len(src), len(table))
	}
	out := make([]byte, len(src))
	for i, v := range src {
		out[i] = v ^ table[i]
	}
	return out, nil
}
