package bitbuffer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Buffer holds the demodulated bit rows of one capture. Bits are packed
// MSB first: bit 0 of a row is the most significant bit of its first byte.
type Buffer struct {
	rows []row
}

type row struct {
	data []byte
	bits int
}

// AddRow appends a row of bits backed by data.
func (b *Buffer) AddRow(data []byte, bits int) error {
	if bits < 0 {
		return fmt.Errorf("negative row length %d", bits)
	}
	if bits > 8*len(data) {
		return fmt.Errorf("row declares %d bits but carries only %d", bits, 8*len(data))
	}
	cp := make([]byte, (bits+7)/8)
	copy(cp, data)
	b.rows = append(b.rows, row{data: cp, bits: bits})
	return nil
}

// NumRows returns the number of rows in the buffer.
func (b *Buffer) NumRows() int { return len(b.rows) }

// RowBits returns the bit length of row i.
func (b *Buffer) RowBits(i int) int { return b.rows[i].bits }

// RowBytes returns a copy of the packed bytes of row i.
func (b *Buffer) RowBytes(i int) []byte {
	cp := make([]byte, len(b.rows[i].data))
	copy(cp, b.rows[i].data)
	return cp
}

func bitAt(data []byte, pos int) byte {
	return data[pos>>3] >> (7 - pos&7) & 1
}

// Search scans row i for the given bit pattern, starting at bit offset
// start. The pattern need not be byte aligned in the row. It returns the
// offset of the first pattern bit and whether the pattern was found.
func (b *Buffer) Search(i, start int, pattern []byte, patternBits int) (int, bool) {
	r := b.rows[i]
	if start < 0 || patternBits <= 0 || patternBits > 8*len(pattern) {
		return 0, false
	}
	ipos, ppos := start, 0
	for ipos < r.bits {
		if bitAt(r.data, ipos) == bitAt(pattern, ppos) {
			ipos++
			ppos++
			if ppos == patternBits {
				return ipos - patternBits, true
			}
		} else {
			ipos += 1 - ppos
			ppos = 0
		}
	}
	return 0, false
}

// ExtractBytes copies nbits starting at bit offset pos of row i into dst,
// packed MSB first. dst receives ceil(nbits/8) bytes; bits of the final
// byte beyond nbits are zero. The range must lie inside the row.
func (b *Buffer) ExtractBytes(i, pos int, dst []byte, nbits int) error {
	r := b.rows[i]
	if pos < 0 || nbits < 0 {
		return fmt.Errorf("negative extract range (offset %d, %d bits)", pos, nbits)
	}
	if pos+nbits > r.bits {
		return fmt.Errorf("extract of %d bits at offset %d exceeds row of %d bits", nbits, pos, r.bits)
	}
	n := (nbits + 7) / 8
	if len(dst) < n {
		return fmt.Errorf("destination holds %d bytes, need %d", len(dst), n)
	}
	if nbits == 0 {
		return nil
	}
	if pos&7 == 0 {
		copy(dst[:n], r.data[pos>>3:])
	} else {
		shift := 8 - pos&7
		word := uint16(r.data[pos>>3])
		for j := 0; j < n; j++ {
			word <<= 8
			if idx := pos>>3 + j + 1; idx < len(r.data) {
				word |= uint16(r.data[idx])
			}
			dst[j] = byte(word >> shift)
		}
	}
	if rem := nbits & 7; rem != 0 {
		dst[n-1] &= 0xff << (8 - rem)
	}
	return nil
}

// Parse builds a buffer from the textual codes form of a capture:
// whitespace separated rows, each {nbits}hexdigits or bare hex with four
// bits per digit. An odd number of digits pads the final nibble.
func Parse(codes string) (*Buffer, error) {
	toks := strings.Fields(codes)
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty capture")
	}
	b := &Buffer{}
	for i, tok := range toks {
		if err := b.addToken(tok); err != nil {
			return nil, fmt.Errorf("row %d %q: %w", i, tok, err)
		}
	}
	return b, nil
}

func (b *Buffer) addToken(tok string) error {
	digits := tok
	bits := -1
	if strings.HasPrefix(tok, "{") {
		end := strings.IndexByte(tok, '}')
		if end < 0 {
			return fmt.Errorf("unterminated bit count")
		}
		n, err := strconv.Atoi(tok[1:end])
		if err != nil || n < 0 {
			return fmt.Errorf("bad bit count %q", tok[1:end])
		}
		bits = n
		digits = tok[end+1:]
	}
	digits = strings.TrimPrefix(strings.ToLower(digits), "0x")
	ndigits := len(digits)
	if ndigits%2 == 1 {
		digits += "0"
	}
	data, err := hex.DecodeString(digits)
	if err != nil {
		return fmt.Errorf("bad hex: %w", err)
	}
	if bits < 0 {
		bits = 4 * ndigits
	}
	return b.AddRow(data, bits)
}

// String renders the buffer in canonical codes form, one {n}hex token per
// row.
func (b *Buffer) String() string {
	var sb strings.Builder
	for i, r := range b.rows {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "{%d}%s", r.bits, hex.EncodeToString(r.data))
	}
	return sb.String()
}
