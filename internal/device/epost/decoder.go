// Package epost decodes punch transmissions from Emit ePost sport timing
// stations. The stations transmit FSK PCM around 868 MHz with a TI
// CC110x at 104 us bit time. Every punch goes out as an 0xAAAA preamble,
// the sync word 0xD391 twice and a 12 byte PN9 whitened frame whose last
// two bytes carry the CC110x CRC-16 over the first ten.
//
// Dewhitened frame layout:
//
//	byte 0     ..MMRRRR  M: message number 0-3, R: 15 when resent
//	byte 1     unknown
//	bytes 2-5  Emit card number, little endian
//	byte 6     ePost station number
//	bytes 7-8  punch time milliseconds, little endian
//	byte 9     count of 65536 ms timer wraps
//	bytes 10-11  CRC-16 of bytes 0-9, big endian
package epost

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/howeyc/crc16"

	"github.com/heivi/rtl-433/internal/bitbuffer"
	"github.com/heivi/rtl-433/internal/clock"
	"github.com/heivi/rtl-433/internal/device"
	"github.com/heivi/rtl-433/internal/whitening"
)

const (
	// ModelName identifies decoded punches in event fields.
	ModelName = "Emit-ePost"

	syncBits  = 48
	frameLen  = 12
	crcOffset = 10

	maxMsgNo = 3
)

// Preamble tail and sync word as transmitted: 0xAAAA, then 0xD391 twice.
var syncPattern = []byte{0xaa, 0xaa, 0xd3, 0x91, 0xd3, 0x91}

// CC110x packet engine CRC (TI DN502): poly 0x8005 processed MSB first,
// init 0xFFFF, no final XOR.
var crcTable = crc16.MakeBitsReversedTable(0x8005)

func init() {
	device.Register(Decoder{})
}

// Decoder decodes Emit ePost punches from demodulated captures.
type Decoder struct{}

// Name implements device.Decoder.
func (Decoder) Name() string { return "epost" }

// Decode implements device.Decoder.
func (d Decoder) Decode(ctx context.Context, buf *bitbuffer.Buffer) (map[string]any, error) {
	rec, err := d.DecodeRecord(ctx, buf)
	if err != nil {
		return nil, err
	}
	return rec.Fields(), nil
}

// DecodeRecord decodes the first punch frame of buf into a Record. The
// record is timestamped with the clock carried by ctx.
func (d Decoder) DecodeRecord(ctx context.Context, buf *bitbuffer.Buffer) (*Record, error) {
	received := clock.Millis(clock.Now(ctx))
	if buf == nil || buf.NumRows() == 0 {
		return nil, fmt.Errorf("capture has no rows: %w", device.ErrPreambleNotFound)
	}
	const row = 0
	if bits := buf.RowBits(row); bits < syncBits+8*frameLen {
		return nil, fmt.Errorf("row of %d bits, need %d: %w",
			bits, syncBits+8*frameLen, device.ErrInsufficientLength)
	}
	syncPos, ok := buf.Search(row, 0, syncPattern, syncBits)
	if !ok {
		return nil, device.ErrPreambleNotFound
	}
	frameStart := syncPos + syncBits
	if bits := buf.RowBits(row); bits < frameStart+8*frameLen {
		return nil, fmt.Errorf("%d bits after sync word, need %d: %w",
			bits-frameStart, 8*frameLen, device.ErrInsufficientLength)
	}
	raw := make([]byte, frameLen)
	if err := buf.ExtractBytes(row, frameStart, raw, 8*frameLen); err != nil {
		return nil, fmt.Errorf("%v: %w", err, device.ErrInsufficientLength)
	}
	frame, err := whitening.Apply(raw)
	if err != nil {
		return nil, fmt.Errorf("dewhiten frame: %w", err)
	}
	f := parseFrame(frame)
	if err := f.validate(); err != nil {
		return nil, err
	}
	if got := checksum(frame); got != f.trailer {
		return nil, fmt.Errorf("crc 0x%04x, trailer 0x%04x: %w",
			got, f.trailer, device.ErrChecksumMismatch)
	}
	mins, secs, msecs := splitTime(combiTime(f.timeMS, f.overflows))
	return &Record{
		Model:     ModelName,
		Raw:       hex.EncodeToString(raw),
		NonwRaw:   hex.EncodeToString(frame),
		EmitCode:  f.emitCode,
		EPostCode: f.epostCode,
		TimeMins:  mins,
		TimeSecs:  uint8(secs),
		TimeMS:    uint16(msecs),
		Resend:    f.resend,
		Time:      strconv.FormatInt(received, 10),
		MIC:       "CRC",
	}, nil
}

// fields is the dewhitened frame taken apart. Byte 1 and the top two
// bits of byte 0 have no known meaning and are ignored.
type fields struct {
	msgNo     uint8
	resend    bool
	emitCode  uint32
	epostCode uint8
	timeMS    uint16
	overflows uint8
	trailer   uint16
}

func parseFrame(frame []byte) fields {
	return fields{
		msgNo:     (frame[0] & 0x30) >> 4,
		resend:    frame[0]&0x0f == 15,
		emitCode:  binary.LittleEndian.Uint32(frame[2:6]),
		epostCode: frame[6],
		timeMS:    binary.LittleEndian.Uint16(frame[7:9]),
		overflows: frame[9],
		trailer:   binary.BigEndian.Uint16(frame[crcOffset : crcOffset+2]),
	}
}

func (f fields) validate() error {
	if f.msgNo > maxMsgNo {
		return fmt.Errorf("message number %d out of range: %w",
			f.msgNo, device.ErrInvalidMessageNumber)
	}
	return nil
}

func checksum(frame []byte) uint16 {
	return crc16.Update(0xffff, crcTable, frame[:crcOffset])
}

// combiTime folds the wrap counter back into the 16 bit millisecond
// timer of the station.
func combiTime(timeMS uint16, overflows uint8) uint32 {
	return uint32(overflows)*65536 + uint32(timeMS)
}

func splitTime(combi uint32) (mins, secs, msecs uint32) {
	msecs = combi % 1000
	secs = combi / 1000 % 60
	mins = combi / 1000 / 60
	return mins, secs, msecs
}
