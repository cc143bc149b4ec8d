package downloader

import (
	"context"
	"io"
	"time"
)

// ProgressFunc observes a transfer. written never decreases within one
// transfer; total is 0 when the size is unknown.
type ProgressFunc func(written, total int64)

type progressWriter struct {
	total      int64
	written    int64
	lastUpdate time.Time
	report     ProgressFunc
}

func newProgressWriter(total int64, report ProgressFunc) *progressWriter {
	return &progressWriter{total: total, report: report}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n := len(b)
	p.written += int64(n)

	// at most ten updates per second
	now := time.Now()
	if now.Sub(p.lastUpdate) >= 100*time.Millisecond {
		p.lastUpdate = now
		p.emit()
	}
	return n, nil
}

// Finish emits the final count so observers always see the last value.
func (p *progressWriter) Finish() {
	p.emit()
}

func (p *progressWriter) emit() {
	if p.report != nil {
		p.report(p.written, p.total)
	}
}

// printerProgress adapts a Printer to a ProgressFunc for one labeled transfer.
func printerProgress(printer *Printer, label string) ProgressFunc {
	if printer == nil {
		return nil
	}
	start := time.Now()
	return func(written, total int64) {
		printer.Progress(label, written, total, time.Since(start))
	}
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
		return r.r.Read(p)
	}
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	reader := &contextReader{ctx: ctx, r: src}
	return io.Copy(dst, reader)
}
