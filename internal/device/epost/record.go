package epost

// Record is one decoded punch. Raw is the frame as captured, NonwRaw the
// same frame with the whitening removed, both as 24 digit hex. Time is
// the receive wall clock in milliseconds since the epoch, kept as a
// decimal string.
type Record struct {
	Model     string
	Raw       string
	NonwRaw   string
	EmitCode  uint32
	EPostCode uint8
	TimeMins  uint32
	TimeSecs  uint8
	TimeMS    uint16
	Resend    bool
	Time      string
	MIC       string
}

// Fields returns the flat event form of the record.
func (r *Record) Fields() map[string]any {
	resend := 0
	if r.Resend {
		resend = 1
	}
	return map[string]any{
		"model":     r.Model,
		"raw":       r.Raw,
		"nonw_raw":  r.NonwRaw,
		"emitcode":  r.EmitCode,
		"epostcode": r.EPostCode,
		"timemins":  r.TimeMins,
		"timesecs":  r.TimeSecs,
		"timems":    r.TimeMS,
		"resend":    resend,
		"time":      r.Time,
		"mic":       r.MIC,
	}
}
