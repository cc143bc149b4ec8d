package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
)

// mockYouTubeClient is a test double that satisfies videoClient.
type mockYouTubeClient struct {
	getVideoFn  func(ctx context.Context, url string) (*youtube.Video, error)
	getStreamFn func(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
	httpDoer    HTTPDoer
	chunkSize   int64

	mu       sync.Mutex
	streamed []int
}

func (m *mockYouTubeClient) GetVideoContext(ctx context.Context, url string) (*youtube.Video, error) {
	if m.getVideoFn != nil {
		return m.getVideoFn(ctx, url)
	}
	return &youtube.Video{}, nil
}

func (m *mockYouTubeClient) GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	m.mu.Lock()
	m.streamed = append(m.streamed, format.ItagNo)
	m.mu.Unlock()
	if m.getStreamFn != nil {
		return m.getStreamFn(ctx, video, format)
	}
	payload := fmt.Sprintf("itag-%d", format.ItagNo)
	return io.NopCloser(strings.NewReader(payload)), int64(len(payload)), nil
}

func (m *mockYouTubeClient) HTTP() HTTPDoer       { return m.httpDoer }
func (m *mockYouTubeClient) SetChunkSize(s int64) { m.chunkSize = s }

func (m *mockYouTubeClient) streamedIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.streamed...)
}

var _ videoClient = (*mockYouTubeClient)(nil)

// fakeTranscoder records jobs and writes a placeholder output for each one.
type fakeTranscoder struct {
	jobs []TranscodeJob
	fail map[string]error
}

func (f *fakeTranscoder) Run(ctx context.Context, job TranscodeJob) error {
	f.jobs = append(f.jobs, job)
	if err := f.fail[job.Name]; err != nil {
		return err
	}
	return os.WriteFile(job.Output, []byte("transcoded:"+job.Name), 0o644)
}

func (f *fakeTranscoder) names() []string {
	names := make([]string, 0, len(f.jobs))
	for _, job := range f.jobs {
		names = append(names, job.Name)
	}
	return names
}

const testVideoID = "dQw4w9WgXcQ"

func videoFormat(itag int, label, mime string) youtube.Format {
	height, _ := strconv.Atoi(strings.TrimSuffix(label, "p"))
	return youtube.Format{
		ItagNo:        itag,
		QualityLabel:  label,
		Height:        height,
		Width:         height * 16 / 9,
		MimeType:      mime,
		FPS:           30,
		Bitrate:       2_000_000,
		ContentLength: 4 << 20,
	}
}

func audioFormat(itag int, mime string) youtube.Format {
	return youtube.Format{
		ItagNo:        itag,
		MimeType:      mime,
		AudioChannels: 2,
		Bitrate:       128_000,
		ContentLength: 1 << 20,
	}
}

func progressiveFormat(itag int, label string) youtube.Format {
	f := videoFormat(itag, label, `video/mp4; codecs="avc1.42001E, mp4a.40.2"`)
	f.AudioChannels = 2
	return f
}

// formatsUpTo returns the common mp4 ladder from maxLabel downwards plus
// the usual audio streams.
func formatsUpTo(maxLabel string) []youtube.Format {
	ladder := []youtube.Format{
		videoFormat(137, "1080p", `video/mp4; codecs="avc1.640028"`),
		videoFormat(136, "720p", `video/mp4; codecs="avc1.4d401f"`),
		videoFormat(135, "480p", `video/mp4; codecs="avc1.4d401e"`),
		progressiveFormat(18, "360p"),
		videoFormat(133, "240p", `video/mp4; codecs="avc1.4d4015"`),
		videoFormat(160, "144p", `video/mp4; codecs="avc1.4d400c"`),
	}
	var formats []youtube.Format
	include := false
	for _, f := range ladder {
		if f.QualityLabel == maxLabel {
			include = true
		}
		if include {
			formats = append(formats, f)
		}
	}
	return append(formats,
		audioFormat(140, `audio/mp4; codecs="mp4a.40.2"`),
		audioFormat(139, `audio/mp4; codecs="mp4a.40.5"`),
		audioFormat(251, `audio/webm; codecs="opus"`),
	)
}

func testVideo(formats []youtube.Format) *youtube.Video {
	return &youtube.Video{
		ID:          testVideoID,
		Title:       "Never Gonna Give You Up",
		Author:      "Rick Astley",
		Views:       1_500_000_000,
		Duration:    213 * time.Second,
		PublishDate: time.Date(2009, 10, 25, 0, 0, 0, 0, time.UTC),
		Formats:     formats,
	}
}

func withCaption(video *youtube.Video, code, baseURL string) *youtube.Video {
	video.CaptionTracks = append(video.CaptionTracks, youtube.CaptionTrack{LanguageCode: code, BaseURL: baseURL})
	return video
}

// assetServer serves thumbnails and captions.
func assetServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ".jpg"):
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("\xff\xd8\xff\xe0jpeg"))
		case strings.HasPrefix(r.URL.Path, "/api/timedtext"):
			if r.URL.Query().Get("fmt") != "vtt" {
				http.Error(w, "want vtt", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte("WEBVTT\n\n00:00.000 --> 00:01.000\nhello\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

type testRig struct {
	client      *mockYouTubeClient
	transcoder  *fakeTranscoder
	server      *httptest.Server
	downloadDir string
	tempDir     string
	prompts     []string
	answers     []bool
}

func newTestRig(t *testing.T, video *youtube.Video) *testRig {
	t.Helper()
	rig := &testRig{
		transcoder:  &fakeTranscoder{},
		server:      assetServer(t),
		downloadDir: t.TempDir(),
		tempDir:     t.TempDir(),
	}
	if len(video.Thumbnails) == 0 {
		video.Thumbnails = youtube.Thumbnails{{URL: rig.server.URL + "/vi/" + testVideoID + "/hqdefault.jpg", Width: 480, Height: 360}}
	}
	rig.client = &mockYouTubeClient{
		getVideoFn: func(ctx context.Context, url string) (*youtube.Video, error) { return video, nil },
		httpDoer:   rig.server.Client(),
	}
	return rig
}

func (r *testRig) confirm(prompt string) (bool, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.answers) == 0 {
		return false, nil
	}
	answer := r.answers[0]
	r.answers = r.answers[1:]
	return answer, nil
}

func (r *testRig) downloader(opts Options) *Downloader {
	opts.DownloadDir = r.downloadDir
	opts.TempDir = r.tempDir
	return New(opts,
		withVideoClient(r.client),
		WithProbe(ProbeFunc(func(context.Context) error { return nil })),
		WithTranscoder(r.transcoder),
		WithAssetClient(r.server.Client()),
		WithConfirm(r.confirm),
		WithPicker(func(*Catalog) (Tier, error) { return "", ErrCancelled }),
		WithPrinter(NewPrinter(io.Discard, true)),
	)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func catalogFor(video *youtube.Video) *Catalog {
	return newCatalog(video)
}
