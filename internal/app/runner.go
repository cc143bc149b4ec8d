package app

import (
	"context"
	"errors"
	"io"

	"github.com/lvcoi/ytpp/internal/downloader"
)

// ExitInterrupted is returned when the run was cancelled by a signal.
const ExitInterrupted = 130

// Request is one invocation against a single video URL.
type Request struct {
	URL      string
	ShowInfo bool
	RawInfo  bool
	Pretty   bool
	// Download is set when --stream was given or no info flag was.
	Download bool
}

type Result struct {
	URL   string `json:"url"`
	Path  string `json:"path,omitempty"`
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Service is the part of downloader.Downloader the runner drives.
type Service interface {
	ShowInfo(ctx context.Context, url string, w io.Writer) error
	RawInfo(ctx context.Context, url string, w io.Writer, pretty bool) error
	Download(ctx context.Context, url string) (*downloader.Session, error)
	Printer() *downloader.Printer
}

// Run performs the info and download steps of req in order, stopping at the
// first failure, and returns the process exit status.
func Run(ctx context.Context, svc Service, req Request, stdout io.Writer) (Result, int) {
	result := Result{URL: req.URL}
	printer := svc.Printer()

	steps := []func() error{}
	if req.ShowInfo {
		steps = append(steps, func() error { return svc.ShowInfo(ctx, req.URL, stdout) })
	}
	if req.RawInfo {
		steps = append(steps, func() error { return svc.RawInfo(ctx, req.URL, stdout, req.Pretty) })
	}
	if req.Download {
		steps = append(steps, func() error {
			session, err := svc.Download(ctx, req.URL)
			if session != nil {
				result.Path = session.Output.Path
			}
			return err
		})
	}

	for _, step := range steps {
		err := step()
		if err == nil {
			continue
		}
		result.Err = err
		result.Error = err.Error()
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			printer.Log(downloader.LogError, "Interrupted! temporary files were kept, use --clear-temp to remove them.")
			return result, ExitInterrupted
		}
		report(printer, err)
		return result, downloader.ExitCode(err)
	}
	return result, 0
}

// report prints err unless the downloader already did. Cancellations are
// outcomes and print as plain notices.
func report(printer *downloader.Printer, err error) {
	if downloader.IsReported(err) {
		return
	}
	if downloader.CategoryOf(err) == downloader.CategoryCancelled {
		printer.Log(downloader.LogWarn, cancelledMessage(err))
		return
	}
	printer.Result("", 0, err)
	printer.Log(downloader.LogWarn, downloader.Hint(err))
}

func cancelledMessage(err error) string {
	switch {
	case errors.Is(err, downloader.ErrNoDownloadableStream):
		return "Sorry, no downloadable video stream found!"
	case errors.Is(err, downloader.ErrCancelled):
		return "Download cancelled! exiting..."
	}
	return err.Error()
}
