// Package progress defines the progress value passed from long-running
// installer operations to caller-supplied sinks.
package progress

import "io"

// Progress is an immutable snapshot of a running operation. Percent is
// always within [0, 100]. TotalBytes is zero when the total is unknown;
// byte counters still advance in that case and Percent stays at zero.
type Progress struct {
	Percent        float64
	TotalBytes     uint64
	ProcessedBytes uint64
	Message        string
}

// Sink receives progress updates. Implementations must be cheap and safe to
// call from whichever goroutine performs the work; callers that need to
// update a UI are expected to marshal onto their own goroutine.
type Sink func(Progress)

// Discard is a sink that drops every update.
func Discard(Progress) {}

// New returns a Progress with the percent clamped to [0, 100].
func New(percent float64) Progress {
	return Progress{Percent: clamp(percent)}
}

// WithTotal returns a copy with the total byte count set.
func (p Progress) WithTotal(total uint64) Progress {
	p.TotalBytes = total
	return p
}

// WithProcessed returns a copy with the processed byte count set.
func (p Progress) WithProcessed(processed uint64) Progress {
	p.ProcessedBytes = processed
	return p
}

// WithMessage returns a copy with a status message set.
func (p Progress) WithMessage(msg string) Progress {
	p.Message = msg
	return p
}

// Scaled returns a sink that maps an operation's own 0-100 range into the
// sub-range [lo, hi] of the wrapped sink. The pipeline uses this to give
// step i of N the slice [i/N*100, (i+1)/N*100] of the overall bar. Byte
// counters and messages pass through untouched.
func Scaled(sink Sink, lo, hi float64) Sink {
	if sink == nil {
		return Discard
	}
	lo = clamp(lo)
	hi = clamp(hi)
	if hi < lo {
		lo, hi = hi, lo
	}
	span := hi - lo
	return func(p Progress) {
		p.Percent = clamp(lo + p.Percent/100*span)
		sink(p)
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// CountingWriter counts bytes written through it and reports a Progress
// update after every write. With an unknown Total the percent stays zero.
type CountingWriter struct {
	W       io.Writer
	Total   uint64
	Sink    Sink
	written uint64
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	cw.written += uint64(n)
	if cw.Sink != nil {
		var percent float64
		if cw.Total > 0 {
			percent = float64(cw.written) / float64(cw.Total) * 100
		}
		cw.Sink(New(percent).WithTotal(cw.Total).WithProcessed(cw.written))
	}
	return n, err
}

// Written returns the number of bytes written so far.
func (cw *CountingWriter) Written() uint64 {
	return cw.written
}
