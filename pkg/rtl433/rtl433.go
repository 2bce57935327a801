package rtl433

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/heivi/rtl-433/internal/bitbuffer"
	"github.com/heivi/rtl-433/internal/device"
	_ "github.com/heivi/rtl-433/internal/device/epost" // register decoder
	"github.com/heivi/rtl-433/internal/metrics"
)

// Result captures the outcome of Analyze.
type Result struct {
	Device string
	Codes  string
	Rows   int
	Fields map[string]any
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	summary := map[string]any{
		"device": r.Device,
		"rows":   r.Rows,
		"codes":  r.Codes,
	}
	if len(r.Fields) > 0 {
		summary["fields"] = r.Fields
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("device: %s rows:%d codes:%s (marshal error: %v)", r.Device, r.Rows, r.Codes, err)
	}
	return string(data)
}

// Analyze runs the registered decoders over one capture in codes form and
// returns the first decode.
func Analyze(ctx context.Context, codes string) (Result, error) {
	return AnalyzeWithOptions(ctx, codes, AnalyzeOptions{})
}

// AnalyzeWithOptions runs decoders over the capture with custom options.
// When every decoder rejects the capture, the joined rejections are
// returned and still match the device sentinels under errors.Is.
func AnalyzeWithOptions(ctx context.Context, codes string, opts AnalyzeOptions) (Result, error) {
	ctx = opts.toInternal(ctx)
	buf, err := bitbuffer.Parse(codes)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Device: "unknown",
		Codes:  buf.String(),
		Rows:   buf.NumRows(),
	}

	candidates := device.All()
	if opts.Device != "" {
		d, err := device.Lookup(opts.Device)
		if err != nil {
			return result, err
		}
		candidates = []device.Decoder{d}
	}

	var rejections []error
	for _, d := range candidates {
		fields, err := d.Decode(ctx, buf)
		if err == nil {
			metrics.Decodes.WithLabelValues(d.Name()).Inc()
			result.Device = d.Name()
			result.Fields = fields
			return result, nil
		}
		reason, ok := device.RejectionReason(err)
		if !ok {
			return result, fmt.Errorf("decode %s: %w", d.Name(), err)
		}
		metrics.Rejects.WithLabelValues(d.Name(), reason.String()).Inc()
		logrus.WithFields(logrus.Fields{
			"device": d.Name(),
			"reason": reason.String(),
		}).Debug("capture rejected")
		rejections = append(rejections, fmt.Errorf("%s: %w", d.Name(), err))
	}
	return result, errors.Join(rejections...)
}
