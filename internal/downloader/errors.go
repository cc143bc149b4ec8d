package downloader

import (
	"errors"
	"strings"
)

// ErrorCategory classifies failures so the CLI can pick a message and exit code.
type ErrorCategory string

const (
	CategoryUnknown            ErrorCategory = "unknown"
	CategoryInvalidURL         ErrorCategory = "invalid_url"
	CategoryNetworkUnavailable ErrorCategory = "network_unavailable"
	CategoryCatalogUnavailable ErrorCategory = "catalog_unavailable"
	CategoryTransfer           ErrorCategory = "transfer_failed"
	CategoryStreamUnavailable  ErrorCategory = "stream_unavailable"
	CategoryCaptionUnavailable ErrorCategory = "caption_unavailable"
	CategoryPostProcess        ErrorCategory = "postprocess_failed"
	CategoryDestinationInvalid ErrorCategory = "destination_invalid"
	CategoryFilesystem         ErrorCategory = "filesystem"
	CategoryCancelled          ErrorCategory = "cancelled"
)

// CategorizedError attaches an ErrorCategory to an underlying error.
type CategorizedError struct {
	Category ErrorCategory
	Err      error
}

func (e CategorizedError) Error() string {
	if e.Err == nil {
		return string(e.Category)
	}
	return e.Err.Error()
}

func (e CategorizedError) Unwrap() error {
	return e.Err
}

func wrapCategory(category ErrorCategory, err error) error {
	if err == nil {
		return nil
	}
	var existing CategorizedError
	if errors.As(err, &existing) && existing.Category == category {
		return err
	}
	return CategorizedError{Category: category, Err: err}
}

// CategoryOf returns the outermost category attached to err.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryUnknown
}

// ExitCode maps an error to the process exit status.
// Cancellation and "nothing to download" are outcomes, not failures.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CategoryOf(err) {
	case CategoryCancelled:
		return 0
	case CategoryInvalidURL:
		return 2
	case CategoryNetworkUnavailable:
		return 3
	case CategoryCatalogUnavailable, CategoryTransfer:
		return 4
	case CategoryStreamUnavailable, CategoryCaptionUnavailable:
		return 5
	case CategoryPostProcess:
		return 6
	case CategoryDestinationInvalid:
		return 7
	case CategoryFilesystem:
		return 8
	default:
		return 1
	}
}

var (
	// ErrCancelled is returned when the user declines an offered fallback.
	ErrCancelled = CategorizedError{Category: CategoryCancelled, Err: errors.New("download cancelled")}
	// ErrNoDownloadableStream is returned when a video exposes no video tier at all.
	ErrNoDownloadableStream = CategorizedError{Category: CategoryCancelled, Err: errors.New("no downloadable video stream found")}
)

type reportedError struct {
	err error
}

func (e reportedError) Error() string {
	return e.err.Error()
}

func (e reportedError) Unwrap() error {
	return e.err
}

func markReported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// IsReported returns true if the error has already been printed to stderr.
func IsReported(err error) bool {
	var re reportedError
	return errors.As(err, &re)
}

// Hint returns user guidance for a categorized failure, or "" when none applies.
func Hint(err error) string {
	switch CategoryOf(err) {
	case CategoryInvalidURL:
		return "Please enter a valid video url (watch?v=, /shorts/ or youtu.be links)."
	case CategoryNetworkUnavailable:
		return "Request timeout! Please check your network and try again."
	case CategoryStreamUnavailable:
		return "Choose a different stream (use --show-info to see available streams)."
	case CategoryCaptionUnavailable:
		return "Choose a different caption (use --raw-info to see available captions)."
	case CategoryPostProcess:
		return "Temporary files were kept; run with --clear-temp to remove them."
	}
	return ""
}

func isRestrictedAccess(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	restrictedMarkers := []string{
		"private",
		"sign in",
		"login",
		"members only",
		"premium",
		"age-restricted",
		"age restricted",
		"not available",
		"unavailable",
	}
	for _, marker := range restrictedMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}
