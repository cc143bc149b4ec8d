package downloader

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecideStream(t *testing.T) {
	full := catalogFor(testVideo(formatsUpTo("1080p")))
	low := catalogFor(testVideo(formatsUpTo("480p")))
	audioOnly := catalogFor(testVideo(formatsUpTo("none")))

	tests := []struct {
		name        string
		catalog     *Catalog
		def         string
		answer      bool
		want        string
		wantErr     error
		wantPrompts int
	}{
		{name: "max", catalog: full, def: StreamMax, want: "1080p"},
		{name: "default available", catalog: full, def: "720p", want: "720p"},
		{name: "mp3 default", catalog: low, def: "mp3", want: "mp3"},
		{name: "fallback accepted", catalog: low, def: "720p", answer: true, want: "480p", wantPrompts: 1},
		{name: "fallback declined", catalog: low, def: "720p", wantErr: ErrCancelled, wantPrompts: 1},
		{name: "max without video", catalog: audioOnly, def: StreamMax, wantErr: ErrNoDownloadableStream},
		{name: "default without video", catalog: audioOnly, def: "720p", wantErr: ErrNoDownloadableStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompts := 0
			confirm := func(string) (bool, error) {
				prompts++
				return tt.answer, nil
			}
			got, err := DecideStream(tt.catalog, tt.def, confirm)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil || got != tt.want {
				t.Fatalf("DecideStream = %q, %v; want %q", got, err, tt.want)
			}
			if prompts != tt.wantPrompts {
				t.Fatalf("prompts = %d, want %d", prompts, tt.wantPrompts)
			}
		})
	}
}

func TestDecideCaption(t *testing.T) {
	video := withCaption(testVideo(formatsUpTo("720p")), "en", "https://example.com/api/timedtext?lang=en")
	catalog := catalogFor(video)

	tests := []struct {
		name    string
		def     string
		answer  bool
		want    string
		wantErr error
	}{
		{name: "none", def: DefaultCaptionNone},
		{name: "unset", def: ""},
		{name: "present", def: "en", want: "en"},
		{name: "missing continue", def: "fr", answer: true},
		{name: "missing stop", def: "fr", wantErr: ErrCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecideCaption(catalog, tt.def, AlwaysConfirm(tt.answer))
			if !errors.Is(err, tt.wantErr) || got != tt.want {
				t.Fatalf("DecideCaption = %q, %v; want %q, %v", got, err, tt.want, tt.wantErr)
			}
		})
	}

	if _, err := RequireCaption(catalog, "fr"); CategoryOf(err) != CategoryCaptionUnavailable || !strings.Contains(err.Error(), "en") {
		t.Fatalf("RequireCaption(fr) = %v", err)
	}
	if got, err := RequireCaption(catalog, "en"); err != nil || got != "en" {
		t.Fatalf("RequireCaption(en) = %q, %v", got, err)
	}
}

func TestLineConfirm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bool
		retries int
	}{
		{name: "yes", input: "yes\n", want: true},
		{name: "y", input: "y\n", want: true},
		{name: "no", input: "no\n", want: false},
		{name: "retry then yes", input: "maybe\nYES\ny\n", want: true, retries: 2},
		{name: "eof", input: "", want: false},
		{name: "answer without newline", input: "n", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := LineConfirm(strings.NewReader(tt.input), &out)("Download anyway?")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("answer = %v, want %v", got, tt.want)
			}
			if n := strings.Count(out.String(), "Invalid answer"); n != tt.retries {
				t.Fatalf("retries = %d, want %d (%q)", n, tt.retries, out.String())
			}
			if !strings.Contains(out.String(), "Download anyway? [yes/no]") {
				t.Fatalf("prompt missing: %q", out.String())
			}
		})
	}
}
