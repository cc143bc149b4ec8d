package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Options describes one download run.
type Options struct {
	DownloadDir string
	TempDir     string
	// Stream is an explicit --stream alias. It never prompts.
	Stream string
	// Caption is an explicit --caption code.
	Caption        string
	DefaultStream  string
	DefaultCaption string
	Pick           bool
	Quiet          bool
	Timeout        time.Duration
}

// Downloader wires the resolver, decision layer, acquirer and pipeline.
type Downloader struct {
	opts       Options
	client     videoClient
	probe      NetworkProbe
	transcoder Transcoder
	assets     HTTPDoer
	confirm    ConfirmFunc
	pick       PickFunc
	printer    *Printer
}

// Option customizes a Downloader.
type Option func(*Downloader)

func WithProbe(probe NetworkProbe) Option       { return func(d *Downloader) { d.probe = probe } }
func WithTranscoder(t Transcoder) Option        { return func(d *Downloader) { d.transcoder = t } }
func WithAssetClient(doer HTTPDoer) Option      { return func(d *Downloader) { d.assets = doer } }
func WithConfirm(confirm ConfirmFunc) Option    { return func(d *Downloader) { d.confirm = confirm } }
func WithPicker(pick PickFunc) Option           { return func(d *Downloader) { d.pick = pick } }
func WithPrinter(printer *Printer) Option       { return func(d *Downloader) { d.printer = printer } }
func withVideoClient(client videoClient) Option { return func(d *Downloader) { d.client = client } }

// New builds a Downloader with production collaborators unless overridden.
func New(opts Options, options ...Option) *Downloader {
	d := &Downloader{opts: opts}
	for _, apply := range options {
		apply(d)
	}
	if d.client == nil {
		d.client = newVideoClient(opts.Timeout)
	}
	if d.probe == nil {
		d.probe = NewPingProbe()
	}
	if d.transcoder == nil {
		d.transcoder = FFmpegTranscoder{}
	}
	if d.assets == nil {
		d.assets = newAssetHTTPClient(30 * time.Second)
	}
	if d.printer == nil {
		d.printer = NewPrinter(os.Stderr, opts.Quiet)
	}
	if d.confirm == nil {
		d.confirm = LineConfirm(os.Stdin, os.Stderr)
	}
	if d.pick == nil {
		d.pick = TierPicker(os.Stdin, os.Stderr)
	}
	return d
}

// Printer returns the status printer shared by this Downloader.
func (d *Downloader) Printer() *Printer {
	return d.printer
}

// Resolve checks the URL and network and fetches the stream catalog.
func (d *Downloader) Resolve(ctx context.Context, url string) (*Catalog, error) {
	return NewResolver(d.client, d.probe).Resolve(ctx, url)
}

// ShowInfo prints the stream table for url.
func (d *Downloader) ShowInfo(ctx context.Context, url string, w io.Writer) error {
	catalog, err := d.Resolve(ctx, url)
	if err != nil {
		return err
	}
	return ShowInfo(w, catalog)
}

// RawInfo prints the stream summary for url as JSON.
func (d *Downloader) RawInfo(ctx context.Context, url string, w io.Writer, pretty bool) error {
	catalog, err := d.Resolve(ctx, url)
	if err != nil {
		return err
	}
	return RawInfo(w, catalog, pretty)
}

// Download resolves url and runs one download end to end.
func (d *Downloader) Download(ctx context.Context, url string) (*Session, error) {
	catalog, err := d.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}
	session := newSession(url, catalog)
	if err := d.run(ctx, session); err != nil {
		if session.State != StateAcquired {
			session.State = StateFailed
		}
		if CategoryOf(err) == CategoryCancelled || ctx.Err() != nil {
			return session, err
		}
		d.printer.Result("", 0, err)
		d.printer.Log(LogWarn, Hint(err))
		return session, markReported(err)
	}
	return session, nil
}

func (d *Downloader) run(ctx context.Context, s *Session) error {
	sel, err := d.selectStream(s.Catalog)
	if err != nil {
		return err
	}
	s.Selection = sel
	spec, _ := Spec(sel.Tier)
	d.printer.Log(LogInfo, fmt.Sprintf("Video: %s", s.Catalog.Title))
	d.printer.Log(LogInfo, fmt.Sprintf("Selected Stream: %s", spec.Display))
	if sel.Caption != "" {
		d.printer.Log(LogInfo, fmt.Sprintf("Caption: %s", sel.Caption))
	}
	log.WithFields(log.Fields{
		"tier":    sel.Tier,
		"video":   sel.Candidate.Video,
		"audio":   sel.Candidate.Audio,
		"ext":     sel.Ext,
		"caption": sel.Caption,
	}).Debug("selected candidate")

	scratch, err := NewScratch(d.opts.TempDir)
	if err != nil {
		return err
	}
	s.Scratch = scratch

	acquirer := NewAcquirer(d.client)
	acquirer.Progress = func(label string) ProgressFunc { return printerProgress(d.printer, label) }
	acquirer.OnState = func(state AcquireState) { s.State = state }
	acquired, err := acquirer.Acquire(ctx, s.Catalog, sel, scratch)
	d.printer.EndProgress()
	if err != nil {
		return err
	}
	s.Acquired = acquired

	output, err := NewPipeline(d.transcoder, d.assets, d.printer).Process(ctx, s.Catalog, acquired, scratch, d.opts.DownloadDir)
	if err != nil {
		return err
	}
	s.Output = output
	d.printer.Result(output.Path, output.Size, nil)
	return nil
}

// selectStream applies the decision layer: explicit stream, interactive
// pick, or configured default, then the caption rules.
func (d *Downloader) selectStream(catalog *Catalog) (Selection, error) {
	var alias string
	switch {
	case d.opts.Stream != "":
		alias = d.opts.Stream
	case d.opts.Pick:
		tier, err := d.pick(catalog)
		if err != nil {
			return Selection{}, err
		}
		alias = string(tier)
	default:
		var err error
		if alias, err = DecideStream(catalog, d.opts.DefaultStream, d.confirm); err != nil {
			return Selection{}, err
		}
	}

	sel, err := Select(alias, catalog)
	if err != nil {
		return Selection{}, err
	}

	if sel.Candidate.AudioOnly() {
		if d.opts.Caption != "" && d.opts.Caption != DefaultCaptionNone {
			d.printer.Log(LogWarn, "Captions are not supported for mp3! ignoring caption...")
		}
		return sel, nil
	}
	if d.opts.Caption != "" {
		sel.Caption, err = RequireCaption(catalog, d.opts.Caption)
	} else {
		sel.Caption, err = DecideCaption(catalog, d.opts.DefaultCaption, d.confirm)
	}
	if err != nil {
		return Selection{}, err
	}
	return sel, nil
}
