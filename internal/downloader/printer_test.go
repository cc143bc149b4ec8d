package downloader

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPrinterResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Result("/downloads/song.mp4", 3<<20, nil)
	p.Result("", 0, errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "OK") || !strings.Contains(lines[0], "3.0MB") || !strings.HasSuffix(lines[0], "/downloads/song.mp4") {
		t.Fatalf("ok line = %q", lines[0])
	}
	if lines[1] != "FAIL boom" {
		t.Fatalf("fail line = %q", lines[1])
	}
}

func TestPrinterQuiet(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Log(LogInfo, "hidden")
	p.Result("/x.mp4", 1, nil)
	p.Progress("video", 5, 10, time.Second)
	p.Log(LogWarn, "careful")
	p.Result("", 0, errors.New("bad"))

	if got := buf.String(); got != "careful\nFAIL bad\n" {
		t.Fatalf("quiet output = %q", got)
	}
}

func TestPrinterProgressNonInteractive(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Progress("video", 10, 100, time.Second)
	if buf.Len() != 0 {
		t.Fatalf("partial progress written to a pipe: %q", buf.String())
	}
	p.Progress("video", 100, 100, time.Second)
	if !strings.Contains(buf.String(), "100.00%") {
		t.Fatalf("final progress = %q", buf.String())
	}
}

func TestNilPrinter(t *testing.T) {
	var p *Printer
	p.Log(LogError, "x")
	p.Result("", 0, nil)
	p.Progress("a", 1, 2, time.Second)
	p.EndProgress()
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512B"},
		{1536, "1.5KB"},
		{5 << 20, "5.0MB"},
		{3 << 30, "3.0GB"},
	}
	for _, tt := range tests {
		if got := humanBytes(tt.n); got != tt.want {
			t.Fatalf("humanBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	if barWidth(20) != 10 || barWidth(80) != 30 || barWidth(200) != 40 {
		t.Fatalf("barWidth bounds: %d %d %d", barWidth(20), barWidth(80), barWidth(200))
	}
}

func TestProgressWriterReportsFinalCount(t *testing.T) {
	var calls [][2]int64
	w := newProgressWriter(10, func(written, total int64) {
		calls = append(calls, [2]int64{written, total})
	})
	for range 5 {
		if _, err := w.Write([]byte("ab")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	w.Finish()

	if len(calls) < 2 {
		t.Fatalf("expected a first and a final update, got %v", calls)
	}
	if last := calls[len(calls)-1]; last != [2]int64{10, 10} {
		t.Fatalf("final update = %v", last)
	}
	for i := 1; i < len(calls); i++ {
		if calls[i][0] < calls[i-1][0] {
			t.Fatalf("written decreased: %v", calls)
		}
	}
}
