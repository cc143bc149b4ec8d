package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// AcquireState is a step of one acquisition run.
type AcquireState int

const (
	StateStart AcquireState = iota
	StateDownloadingVideo
	StateDownloadingAudio
	StateDownloadingCaption
	StateAcquired
	StateFailed
)

func (s AcquireState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateDownloadingVideo:
		return "downloading_video"
	case StateDownloadingAudio:
		return "downloading_audio"
	case StateDownloadingCaption:
		return "downloading_caption"
	case StateAcquired:
		return "acquired"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Acquired lists the raw scratch files of one download. Empty paths mean the
// track was not needed.
type Acquired struct {
	Selection   Selection
	VideoPath   string
	AudioPath   string
	CaptionPath string
	Bytes       int64
}

// Acquirer moves the remote tracks of a Selection into scratch files.
type Acquirer struct {
	client videoClient
	// Progress returns the observer for one labeled transfer. May be nil.
	Progress func(label string) ProgressFunc
	// OnState is called on every state transition. May be nil.
	OnState func(AcquireState)
}

func NewAcquirer(client videoClient) *Acquirer {
	return &Acquirer{client: client}
}

// Acquire validates sel against catalog, then downloads video, audio and
// caption in that order. A failed transfer is not retried and leaves its
// partial file in scratch.
func (a *Acquirer) Acquire(ctx context.Context, catalog *Catalog, sel Selection, scratch *Scratch) (*Acquired, error) {
	a.enter(StateStart)
	acquired, err := a.acquire(ctx, catalog, sel, scratch)
	if err != nil {
		a.enter(StateFailed)
		return nil, err
	}
	a.enter(StateAcquired)
	return acquired, nil
}

func (a *Acquirer) acquire(ctx context.Context, catalog *Catalog, sel Selection, scratch *Scratch) (*Acquired, error) {
	if !tierAllowed(sel.Tier, catalog) {
		return nil, wrapCategory(CategoryStreamUnavailable, fmt.Errorf("stream %s is not available for this video", sel.Tier))
	}
	for _, id := range []int{sel.Candidate.Video, sel.Candidate.Audio} {
		if !catalog.Has(id) {
			return nil, wrapCategory(CategoryStreamUnavailable, fmt.Errorf("stream id %d is not in the catalog", id))
		}
	}
	var track CaptionTrack
	if sel.Caption != "" {
		var ok bool
		if track, ok = catalog.Captions[sel.Caption]; !ok {
			return nil, wrapCategory(CategoryCaptionUnavailable, fmt.Errorf("caption %q is not available for this video", sel.Caption))
		}
	}

	out := &Acquired{Selection: sel}
	if id := sel.Candidate.Video; id != 0 {
		a.enter(StateDownloadingVideo)
		label := "video"
		if sel.Candidate.Progressive() {
			label = "video+audio"
		}
		path, n, err := a.transfer(ctx, catalog, id, scratch, RoleVideo, label)
		out.Bytes += n
		if err != nil {
			return nil, err
		}
		out.VideoPath = path
	}
	if id := sel.Candidate.Audio; id != 0 {
		a.enter(StateDownloadingAudio)
		path, n, err := a.transfer(ctx, catalog, id, scratch, RoleAudio, "audio")
		out.Bytes += n
		if err != nil {
			return nil, err
		}
		out.AudioPath = path
	}
	if sel.Caption != "" {
		a.enter(StateDownloadingCaption)
		path := scratch.Path(RoleCaption, "vtt")
		if err := fetchCaption(ctx, a.client.HTTP(), track, path); err != nil {
			return nil, err
		}
		out.CaptionPath = path
	}
	return out, nil
}

func (a *Acquirer) transfer(ctx context.Context, catalog *Catalog, id int, scratch *Scratch, role Role, label string) (string, int64, error) {
	format, ok := catalog.format(id)
	if !ok {
		return "", 0, wrapCategory(CategoryStreamUnavailable, fmt.Errorf("stream id %d is not in the catalog", id))
	}
	path := scratch.Path(role, mimeToExt(format.MimeType))
	log.WithFields(log.Fields{"itag": id, "path": path}).Debug("downloading stream")

	adjustChunkSize(a.client, format.ContentLength)
	stream, size, err := a.client.GetStreamContext(ctx, catalog.video, format)
	if err != nil {
		return "", 0, wrapCategory(CategoryTransfer, fmt.Errorf("open stream %d: %w", id, err))
	}
	defer stream.Close()
	if size <= 0 {
		size = format.ContentLength
	}

	file, err := os.Create(path)
	if err != nil {
		return "", 0, wrapCategory(CategoryFilesystem, fmt.Errorf("create %s: %w", path, err))
	}
	defer file.Close()

	var report ProgressFunc
	if a.Progress != nil {
		report = a.Progress(label)
	}
	pw := newProgressWriter(size, report)
	written, err := copyWithContext(ctx, io.MultiWriter(file, pw), stream)
	pw.Finish()
	if err != nil {
		return path, written, wrapCategory(CategoryTransfer, fmt.Errorf("download stream %d: %w", id, err))
	}
	if err := file.Sync(); err != nil {
		return path, written, wrapCategory(CategoryFilesystem, fmt.Errorf("flush %s: %w", path, err))
	}
	return path, written, nil
}

func (a *Acquirer) enter(s AcquireState) {
	log.WithField("state", s.String()).Debug("acquisition")
	if a.OnState != nil {
		a.OnState(s)
	}
}

func tierAllowed(t Tier, catalog *Catalog) bool {
	return lo.Contains(AllowedTiers(catalog), t)
}

func mimeToExt(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	switch strings.TrimSpace(mime) {
	case "video/mp4", "audio/mp4":
		return "mp4"
	case "video/webm", "audio/webm":
		return "webm"
	case "video/3gpp":
		return "3gp"
	}
	return "bin"
}
