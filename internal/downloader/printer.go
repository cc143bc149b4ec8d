package downloader

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type LogLevel int

const (
	LogInfo LogLevel = iota
	LogWarn
	LogError
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D27A")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")).Bold(true)
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FDBFF"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F8F8F2")).Bold(true)
	etaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6ADC8")).Faint(true)
)

// Printer writes human-facing status to stderr. Diagnostics go through logrus.
type Printer struct {
	out         io.Writer
	quiet       bool
	color       bool
	interactive bool
	columns     int
	bar         progress.Model

	mu          sync.Mutex
	progressing bool
}

// NewPrinter builds a Printer writing to out. quiet suppresses everything
// except warnings and errors.
func NewPrinter(out io.Writer, quiet bool) *Printer {
	columns := terminalColumns(out)
	if columns <= 0 {
		columns = 100
	}
	interactive := isTerminalWriter(out)
	return &Printer{
		out:         out,
		quiet:       quiet,
		color:       interactive && supportsColor(),
		interactive: interactive,
		columns:     columns,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth(columns))),
	}
}

// Log prints a one-line message. Info is dropped in quiet mode.
func (p *Printer) Log(level LogLevel, msg string) {
	if p == nil || msg == "" {
		return
	}
	if p.quiet && level == LogInfo {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakProgressLocked()
	switch level {
	case LogError:
		msg = p.style(failStyle, msg)
	case LogWarn:
		msg = p.style(warnStyle, msg)
	default:
		msg = p.style(infoStyle, msg)
	}
	fmt.Fprintln(p.out, msg)
}

// Result reports the outcome of a run: the published path or the failure.
func (p *Printer) Result(path string, size int64, err error) {
	if p == nil {
		return
	}
	if err == nil && p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakProgressLocked()
	if err != nil {
		fmt.Fprintf(p.out, "%s %s\n", p.style(failStyle, "FAIL"), err.Error())
		return
	}
	fmt.Fprintf(p.out, "%s %s %s\n", p.style(okStyle, "OK"), padLeft(humanBytes(size), 9), path)
}

// Progress redraws the transfer line for label.
func (p *Printer) Progress(label string, current, total int64, elapsed time.Duration) {
	if p == nil || p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	line := p.progressLine(label, current, total, elapsed)
	if p.interactive {
		fmt.Fprintf(p.out, "\r%s\x1b[K", line)
		p.progressing = true
		return
	}
	if total > 0 && current >= total {
		fmt.Fprintln(p.out, line)
	}
}

// EndProgress terminates an in-place progress line.
func (p *Printer) EndProgress() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakProgressLocked()
}

func (p *Printer) breakProgressLocked() {
	if p.progressing {
		fmt.Fprintln(p.out)
		p.progressing = false
	}
}

func (p *Printer) progressLine(label string, current, total int64, elapsed time.Duration) string {
	speed := ""
	if elapsed > 0 {
		speed = humanBytes(int64(float64(current)/elapsed.Seconds())) + "/s"
	}
	label = p.style(labelStyle, fmt.Sprintf("%-6s", label))
	if total <= 0 {
		return fmt.Sprintf("%s %s %s", label, padLeft(humanBytes(current), 9), p.style(etaStyle, padLeft(speed, 10)))
	}
	percent := float64(current) / float64(total)
	if percent > 1 {
		percent = 1
	}
	bar := fmt.Sprintf("%6.2f%%", percent*100)
	if p.color {
		bar = p.bar.ViewAs(percent)
	}
	return fmt.Sprintf("%s %s %s / %s %s",
		label,
		bar,
		padLeft(humanBytes(current), 9),
		padLeft(humanBytes(total), 9),
		p.style(etaStyle, padLeft(speed, 10)),
	)
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func barWidth(columns int) int {
	width := columns - 50
	if width < 10 {
		return 10
	}
	if width > 40 {
		return 40
	}
	return width
}

func padLeft(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return strings.Repeat(" ", width-len(value)) + value
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for n >= unit*div && exp < 4 {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f%s", value, suffix[exp])
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalColumns(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	if columns := os.Getenv("COLUMNS"); columns != "" {
		if val, err := strconv.Atoi(columns); err == nil && val > 0 {
			return val
		}
	}
	return 0
}

func supportsColor() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return os.Getenv("CLICOLOR") != "0"
}
