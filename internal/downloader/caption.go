package downloader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	log "github.com/sirupsen/logrus"
)

// captionURL asks the timedtext endpoint for WebVTT instead of its XML default.
func captionURL(baseURL string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("fmt", "vtt")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// fetchCaption downloads track as WebVTT to path.
func fetchCaption(ctx context.Context, doer HTTPDoer, track CaptionTrack, path string) error {
	if doer == nil {
		doer = http.DefaultClient
	}
	link, err := captionURL(track.BaseURL)
	if err != nil {
		return wrapCategory(CategoryCaptionUnavailable, fmt.Errorf("caption %s: bad url: %w", track.Code, err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return wrapCategory(CategoryTransfer, err)
	}
	resp, err := doer.Do(req)
	if err != nil {
		return wrapCategory(CategoryTransfer, fmt.Errorf("caption %s: %w", track.Code, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return wrapCategory(CategoryTransfer, fmt.Errorf("caption %s: unexpected status %s", track.Code, resp.Status))
	}

	file, err := os.Create(path)
	if err != nil {
		return wrapCategory(CategoryFilesystem, fmt.Errorf("create %s: %w", path, err))
	}
	defer file.Close()
	n, err := copyWithContext(ctx, file, resp.Body)
	if err != nil {
		return wrapCategory(CategoryTransfer, fmt.Errorf("caption %s: %w", track.Code, err))
	}
	log.WithFields(log.Fields{"caption": track.Code, "bytes": n}).Debug("caption saved")
	return nil
}
