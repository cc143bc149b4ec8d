package downloader

import (
	"context"
	"io"
	"net/http"

	"github.com/kkdai/youtube/v2"
)

// HTTPDoer executes raw HTTP requests. *http.Client satisfies this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// videoClient is the slice of the YouTube API the downloader needs: metadata
// for the catalog and one byte stream per selected format.
type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
	// HTTP returns the underlying HTTP client for caption requests.
	HTTP() HTTPDoer
}

// youtubeClientAdapter wraps *youtube.Client to satisfy videoClient.
type youtubeClientAdapter struct {
	*youtube.Client
}

func (a *youtubeClientAdapter) HTTP() HTTPDoer { return a.Client.HTTPClient }

var _ videoClient = (*youtubeClientAdapter)(nil)

const (
	minChunkSize     int64 = 256 * 1024
	maxChunkSize     int64 = 2 * 1024 * 1024
	targetChunkCount int64 = 64
)

type chunkSizer interface {
	SetChunkSize(size int64)
}

func (a *youtubeClientAdapter) SetChunkSize(size int64) { a.Client.ChunkSize = size }

// adjustChunkSize shrinks ranged requests for small streams so progress
// updates stay frequent, and caps them for large ones.
func adjustChunkSize(client videoClient, contentLength int64) {
	sizer, ok := client.(chunkSizer)
	if !ok || contentLength <= 0 {
		return
	}
	chunk := contentLength / targetChunkCount
	if chunk < minChunkSize {
		chunk = minChunkSize
	} else if chunk > maxChunkSize {
		chunk = maxChunkSize
	}
	sizer.SetChunkSize(chunk)
}
