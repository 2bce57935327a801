package testutil

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/howeyc/crc16"

	"github.com/heivi/rtl-433/internal/whitening"
)

// Punch describes a synthetic ePost transmission for tests.
type Punch struct {
	MsgNo     uint8
	Resend    bool
	EmitCode  uint32
	EPostCode uint8
	TimeMS    uint16
	Overflows uint8
}

var punchCRC = crc16.MakeBitsReversedTable(0x8005)

// Frame returns the 12 byte dewhitened frame of p with a valid checksum
// trailer.
func (p Punch) Frame() []byte {
	frame := make([]byte, 12)
	frame[0] = (p.MsgNo & 3) << 4
	if p.Resend {
		frame[0] |= 0x0f
	}
	binary.LittleEndian.PutUint32(frame[2:6], p.EmitCode)
	frame[6] = p.EPostCode
	binary.LittleEndian.PutUint16(frame[7:9], p.TimeMS)
	frame[9] = p.Overflows
	Refinalize(frame)
	return frame
}

// Refinalize recomputes the checksum trailer of a 12 byte dewhitened
// frame after payload bytes were edited.
func Refinalize(frame []byte) {
	crc := crc16.Update(0xffff, punchCRC, frame[:10])
	binary.BigEndian.PutUint16(frame[10:12], crc)
}

// Row returns the on-air bytes of the punch: preamble, sync word and the
// whitened frame.
func (p Punch) Row() []byte {
	return AirRow(p.Frame())
}

// AirRow whitens a dewhitened frame and prepends preamble and sync word.
func AirRow(frame []byte) []byte {
	whitened, err := whitening.Apply(frame)
	if err != nil {
		panic(err) // 12 byte frames never exceed the whitening sequence
	}
	row := []byte{0xaa, 0xaa, 0xd3, 0x91, 0xd3, 0x91}
	return append(row, whitened...)
}

// Codes returns the capture codes string of the punch.
func (p Punch) Codes() string {
	return RowCodes(p.Row())
}

// ShiftCodes returns the capture codes string of the punch with n zero
// bits prepended, moving the sync word off byte alignment.
func (p Punch) ShiftCodes(n int) string {
	row := p.Row()
	bits := 8*len(row) + n
	shifted := make([]byte, (bits+7)/8)
	for i, v := range row {
		shifted[(n>>3)+i] |= v >> (n & 7)
		if n&7 != 0 {
			shifted[(n>>3)+i+1] |= v << (8 - n&7)
		}
	}
	return fmt.Sprintf("{%d}%s", bits, hex.EncodeToString(shifted))
}

// RowCodes renders one row of on-air bytes as a codes string.
func RowCodes(row []byte) string {
	return fmt.Sprintf("{%d}%s", 8*len(row), hex.EncodeToString(row))
}
