package downloader

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Pipeline turns acquired scratch files into one published output.
type Pipeline struct {
	transcoder Transcoder
	assets     HTTPDoer
	printer    *Printer
}

func NewPipeline(transcoder Transcoder, assets HTTPDoer, printer *Printer) *Pipeline {
	return &Pipeline{transcoder: transcoder, assets: assets, printer: printer}
}

// Process muxes or transcodes acq, publishes the result into destDir and
// removes the scratch files of this download. On failure scratch files are
// kept for --clear-temp.
func (p *Pipeline) Process(ctx context.Context, catalog *Catalog, acq *Acquired, scratch *Scratch, destDir string) (Output, error) {
	sel := acq.Selection
	spec, ok := Spec(sel.Tier)
	if !ok {
		return Output{}, wrapCategory(CategoryStreamUnavailable, fmt.Errorf("unknown tier %s", sel.Tier))
	}
	title := catalog.FileTitle()
	out := Output{Title: title, Label: spec.Label}

	var (
		staged string
		name   string
		err    error
	)
	p.printer.Log(LogInfo, "Processing...")
	switch {
	case sel.Candidate.AudioOnly():
		staged, err = p.toMP3(ctx, catalog, acq, scratch)
		name = title + "_" + spec.Label + ".mp3"
	case sel.Candidate.Progressive() && acq.CaptionPath == "":
		staged = acq.VideoPath
		name = outputName(title, spec.Label, "", sel.Ext)
	default:
		out.Caption = sel.Caption
		staged, err = p.merge(ctx, acq, scratch)
		name = outputName(title, spec.Label, sel.Caption, sel.Ext)
	}
	if err != nil {
		return Output{}, err
	}

	dest, size, err := publish(staged, destDir, name)
	if err != nil {
		return Output{}, err
	}
	out.Path = dest
	out.Size = size
	scratch.Cleanup()
	return out, nil
}

// merge stream-copies the tracks into <token>_merged.<ext>, adding the
// caption as a subtitle track when one was acquired.
func (p *Pipeline) merge(ctx context.Context, acq *Acquired, scratch *Scratch) (string, error) {
	sel := acq.Selection
	merged := scratch.Path(RoleMerged, sel.Ext)
	if acq.CaptionPath == "" {
		return merged, p.run(ctx, mergeJob(acq.VideoPath, acq.AudioPath, merged))
	}

	caption := acq.CaptionPath
	if subtitleCodec(sel.Ext) == "mov_text" {
		srt := scratch.Path(RoleCaption, "srt")
		if err := p.run(ctx, captionConvertJob(acq.CaptionPath, srt)); err != nil {
			return "", err
		}
		caption = srt
	}
	job := captionMuxJob(acq.VideoPath, acq.AudioPath, caption, sel.Caption, sel.Ext, merged)
	return merged, p.run(ctx, job)
}

// toMP3 builds a tagged mp3 with the thumbnail as cover art: still video from
// the thumbnail, copy-mux with the audio, then a LAME encode.
func (p *Pipeline) toMP3(ctx context.Context, catalog *Catalog, acq *Acquired, scratch *Scratch) (string, error) {
	p.printer.Log(LogInfo, "Downloading thumbnail...")
	image := scratch.Path(RoleThumbnail, "jpg")
	if err := fetchThumbnail(ctx, p.assets, catalog.ThumbnailURL, image); err != nil {
		return "", err
	}

	still := scratch.Path(RoleThumbnail, "mp4")
	if err := p.run(ctx, coverVideoJob(image, still)); err != nil {
		return "", err
	}
	muxed := scratch.Path(RoleMerged, "mp4")
	if err := p.run(ctx, mergeJob(still, acq.AudioPath, muxed)); err != nil {
		return "", err
	}
	encoded := scratch.Path(RoleMerged, "mp3")
	if err := p.run(ctx, mp3Job(muxed, encoded)); err != nil {
		return "", err
	}

	if err := embedID3Tags(tagsForCatalog(catalog, image), encoded); err != nil {
		p.printer.Log(LogWarn, fmt.Sprintf("warning: metadata tag embedding failed: %v", err))
	}
	return encoded, nil
}

func (p *Pipeline) run(ctx context.Context, job TranscodeJob) error {
	log.WithFields(log.Fields{"job": job.Name, "output": job.Output}).Debug("transcode")
	if err := p.transcoder.Run(ctx, job); err != nil {
		return wrapCategory(CategoryPostProcess, err)
	}
	return nil
}
