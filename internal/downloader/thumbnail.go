package downloader

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"

	log "github.com/sirupsen/logrus"
)

var thumbnailFileRegex = regexp.MustCompile(`/[^/]*\.(?:jpg|webp)[^/]*$`)

// thumbnailCandidates returns the maxres then hq variants of a thumbnail URL.
func thumbnailCandidates(link string) []string {
	if !thumbnailFileRegex.MatchString(link) {
		return []string{link}
	}
	return []string{
		thumbnailFileRegex.ReplaceAllString(link, "/maxresdefault.jpg"),
		thumbnailFileRegex.ReplaceAllString(link, "/hqdefault.jpg"),
	}
}

// fetchThumbnail saves the best available thumbnail of link to path.
func fetchThumbnail(ctx context.Context, doer HTTPDoer, link, path string) error {
	if link == "" {
		return wrapCategory(CategoryPostProcess, fmt.Errorf("video has no thumbnail"))
	}
	var lastErr error
	for _, candidate := range thumbnailCandidates(link) {
		err := downloadAsset(ctx, doer, candidate, path)
		if err == nil {
			return nil
		}
		log.WithError(err).WithField("url", candidate).Debug("thumbnail candidate failed")
		lastErr = err
	}
	return wrapCategory(CategoryPostProcess, fmt.Errorf("failed to download thumbnail: %w", lastErr))
}

func downloadAsset(ctx context.Context, doer HTTPDoer, link, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return err
	}
	resp, err := doer.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := copyWithContext(ctx, file, resp.Body); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
