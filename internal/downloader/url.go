package downloader

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoURLRegex = regexp.MustCompile(
	`^(?:https?://)?(?:` +
		`(?:www\.|m\.|music\.)?youtube\.com/watch\?(?:[^#\s]*&)?v=[A-Za-z0-9_-]{11}` +
		`|(?:www\.|m\.)?youtube\.com/shorts/[A-Za-z0-9_-]{11}` +
		`|youtu\.be/[A-Za-z0-9_-]{11}` +
		`)(?:[?&][^#\s]*)?$`,
)

// ValidateURL checks that raw is a single-video YouTube link and returns it
// normalized to a watch?v= URL. Anything else is CategoryInvalidURL.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", wrapCategory(CategoryInvalidURL, fmt.Errorf("empty URL"))
	}
	if !videoURLRegex.MatchString(raw) {
		return "", wrapCategory(CategoryInvalidURL, fmt.Errorf("invalid video URL: %s", raw))
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	normalized := NormalizeYouTubeURL(raw)
	if videoIDFromURL(normalized) == "" {
		return "", wrapCategory(CategoryInvalidURL, fmt.Errorf("invalid video URL: %s", raw))
	}
	return normalized, nil
}

// normalizeHostname returns the lowercase hostname without "www." or a port.
func normalizeHostname(parsed *url.URL) string {
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// NormalizeYouTubeURL converts shorts, youtu.be, mobile and music links to
// a plain www.youtube.com/watch?v= URL, dropping tracking parameters.
func NormalizeYouTubeURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	id := ""
	switch host := normalizeHostname(parsed); host {
	case "youtu.be":
		id = strings.Trim(parsed.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		switch {
		case len(parts) >= 2 && parts[0] == "shorts":
			id = parts[1]
		case len(parts) == 1 && parts[0] == "watch":
			id = parsed.Query().Get("v")
		}
	default:
		return u
	}
	if id == "" {
		return u
	}
	return watchURLForID(id)
}

func videoIDFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("v")
}

func watchURLForID(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + id
}
