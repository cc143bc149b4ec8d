package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// TranscodeInput is one ffmpeg input. Select narrows it to "v" or "a";
// empty keeps every stream of the input.
type TranscodeInput struct {
	Path   string
	Args   ffmpeg.KwArgs
	Select string
}

// TranscodeJob is a single ffmpeg invocation writing one output file.
type TranscodeJob struct {
	Name    string
	Inputs  []TranscodeInput
	Output  string
	Options ffmpeg.KwArgs
}

func (j TranscodeJob) stream() *ffmpeg.Stream {
	streams := make([]*ffmpeg.Stream, 0, len(j.Inputs))
	for _, in := range j.Inputs {
		var s *ffmpeg.Stream
		if in.Args != nil {
			s = ffmpeg.Input(in.Path, in.Args)
		} else {
			s = ffmpeg.Input(in.Path)
		}
		switch in.Select {
		case "v":
			s = s.Video()
		case "a":
			s = s.Audio()
		}
		streams = append(streams, s)
	}
	var out *ffmpeg.Stream
	if j.Options != nil {
		out = ffmpeg.Output(streams, j.Output, j.Options)
	} else {
		out = ffmpeg.Output(streams, j.Output)
	}
	return out.OverWriteOutput()
}

// Args returns the ffmpeg command line, without the binary name.
func (j TranscodeJob) Args() []string {
	return j.stream().GetArgs()
}

// Transcoder runs ffmpeg jobs. A non-zero exit must be returned as an error.
type Transcoder interface {
	Run(ctx context.Context, job TranscodeJob) error
}

// FFmpegTranscoder runs jobs with the ffmpeg binary found on PATH.
type FFmpegTranscoder struct {
	Binary string
}

func (t FFmpegTranscoder) Run(ctx context.Context, job TranscodeJob) error {
	binary := t.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return wrapCategory(CategoryPostProcess, fmt.Errorf("ffmpeg not found: %w", err))
	}
	args := job.Args()
	log.WithFields(log.Fields{"job": job.Name, "args": strings.Join(args, " ")}).Debug("running ffmpeg")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapCategory(CategoryPostProcess, fmt.Errorf("ffmpeg %s: %w: %s", job.Name, err, lastLines(stderr.String(), 3)))
	}
	return nil
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// mergeJob stream-copies video and audio into one container.
func mergeJob(video, audio, output string) TranscodeJob {
	return TranscodeJob{
		Name: "merge",
		Inputs: []TranscodeInput{
			{Path: video, Select: "v"},
			{Path: audio, Select: "a"},
		},
		Output:  output,
		Options: ffmpeg.KwArgs{"c:v": "copy", "c:a": "copy"},
	}
}

// subtitleCodec is the subtitle encoding a container can carry.
func subtitleCodec(ext string) string {
	if ext == "webm" {
		return "webvtt"
	}
	return "mov_text"
}

// captionConvertJob rewrites a WebVTT caption into the text format ext expects.
func captionConvertJob(vtt, output string) TranscodeJob {
	return TranscodeJob{
		Name:   "caption",
		Inputs: []TranscodeInput{{Path: vtt}},
		Output: output,
	}
}

// captionMuxJob copies video and audio and adds the caption as a subtitle
// track tagged with its language code. audio may be empty for progressive
// video that already carries sound.
func captionMuxJob(video, audio, caption, code, ext, output string) TranscodeJob {
	inputs := []TranscodeInput{{Path: video}}
	if audio != "" {
		inputs = []TranscodeInput{{Path: video, Select: "v"}, {Path: audio, Select: "a"}}
	}
	inputs = append(inputs, TranscodeInput{Path: caption})
	return TranscodeJob{
		Name:   "caption-mux",
		Inputs: inputs,
		Output: output,
		Options: ffmpeg.KwArgs{
			"c:v": "copy",
			"c:a": "copy",
			"c:s": subtitleCodec(ext),
			"metadata:s:s:0": []string{
				"language=" + code,
				"title=" + code,
				"handler_name=" + code,
			},
		},
	}
}

// coverVideoJob turns the thumbnail into a one second 720p still video.
func coverVideoJob(image, output string) TranscodeJob {
	return TranscodeJob{
		Name:   "cover",
		Inputs: []TranscodeInput{{Path: image, Args: ffmpeg.KwArgs{"loop": "1", "t": "1"}}},
		Output: output,
		Options: ffmpeg.KwArgs{
			"vf":  "scale=1280:720",
			"r":   "1",
			"c:v": "libx264",
			"t":   "1",
		},
	}
}

// mp3Job drops the video track and encodes the audio with LAME VBR quality 2.
func mp3Job(input, output string) TranscodeJob {
	return TranscodeJob{
		Name:    "mp3",
		Inputs:  []TranscodeInput{{Path: input}},
		Output:  output,
		Options: ffmpeg.KwArgs{"vn": "", "c:a": "libmp3lame", "q:a": "2"},
	}
}
