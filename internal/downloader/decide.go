package downloader

import (
	"fmt"
	"strings"
)

// DefaultCaptionNone disables captioning by default.
const DefaultCaptionNone = "none"

// DecideStream turns the configured default stream into the alias to
// download. An unavailable default offers maxres through confirm.
func DecideStream(catalog *Catalog, defaultStream string, confirm ConfirmFunc) (string, error) {
	maxres, hasMax := catalog.MaxRes.Get()
	if defaultStream == StreamMax {
		if !hasMax {
			return "", ErrNoDownloadableStream
		}
		return string(maxres), nil
	}
	if _, ok := AllowedAliases(catalog)[defaultStream]; ok {
		return defaultStream, nil
	}
	if !hasMax {
		return "", ErrNoDownloadableStream
	}
	question := fmt.Sprintf("Default stream not available! ( Default: %s | Available: %s )\nDo you want to download the maximum available stream ?", defaultStream, maxres)
	ok, err := ask(confirm, question)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCancelled
	}
	return string(maxres), nil
}

// DecideCaption turns the configured default caption into the caption to
// mux, "" meaning none. A missing caption asks whether to go on without one.
func DecideCaption(catalog *Catalog, defaultCaption string, confirm ConfirmFunc) (string, error) {
	if defaultCaption == "" || defaultCaption == DefaultCaptionNone {
		return "", nil
	}
	if _, ok := catalog.Captions[defaultCaption]; ok {
		return defaultCaption, nil
	}
	question := fmt.Sprintf("Default caption not available! ( Default: %s | Available: %s )\nDo you want to continue without caption ?", defaultCaption, captionList(catalog))
	ok, err := ask(confirm, question)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCancelled
	}
	return "", nil
}

// RequireCaption checks an explicitly requested caption.
func RequireCaption(catalog *Catalog, code string) (string, error) {
	if code == "" || code == DefaultCaptionNone {
		return "", nil
	}
	if _, ok := catalog.Captions[code]; !ok {
		return "", wrapCategory(CategoryCaptionUnavailable, fmt.Errorf("caption %q is not available for this video (available: %s)", code, captionList(catalog)))
	}
	return code, nil
}

func captionList(catalog *Catalog) string {
	codes := catalog.CaptionCodes()
	if len(codes) == 0 {
		return "none"
	}
	return strings.Join(codes, ", ")
}

func ask(confirm ConfirmFunc, question string) (bool, error) {
	if confirm == nil {
		return false, nil
	}
	return confirm(question)
}
