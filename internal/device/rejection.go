package device

import "errors"

// Reason classifies the expected ways a decoder declines a capture.
type Reason uint8

const (
	PreambleNotFound Reason = iota + 1
	InsufficientLength
	InvalidMessageNumber
	ChecksumMismatch
)

func (r Reason) String() string {
	switch r {
	case PreambleNotFound:
		return "preamble_not_found"
	case InsufficientLength:
		return "insufficient_length"
	case InvalidMessageNumber:
		return "invalid_message_number"
	case ChecksumMismatch:
		return "checksum_mismatch"
	}
	return "unknown"
}

// Rejection reports a capture that does not carry a valid frame for the
// decoder. On air shared with other transmitters rejections are routine;
// they must never abort the surrounding capture loop.
type Rejection struct {
	Reason Reason
}

func (r *Rejection) Error() string {
	return "capture rejected: " + r.Reason.String()
}

// Is matches rejections by reason, so wrapped rejections compare equal to
// their sentinel under errors.Is.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == r.Reason
}

var (
	ErrPreambleNotFound     = &Rejection{Reason: PreambleNotFound}
	ErrInsufficientLength   = &Rejection{Reason: InsufficientLength}
	ErrInvalidMessageNumber = &Rejection{Reason: InvalidMessageNumber}
	ErrChecksumMismatch     = &Rejection{Reason: ChecksumMismatch}
)

// RejectionReason extracts the rejection reason from err, unwrapping as
// needed. ok is false when err is not a rejection.
func RejectionReason(err error) (Reason, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return 0, false
}
