package downloader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kkdai/youtube/v2"
)

func TestValidateURL(t *testing.T) {
	const want = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "watch", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "watch http", input: "http://youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "watch extra params", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s"},
		{name: "music", input: "https://music.youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "mobile", input: "https://m.youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "short link", input: "https://youtu.be/dQw4w9WgXcQ"},
		{name: "short link tracking", input: "https://youtu.be/dQw4w9WgXcQ?si=abcdef123"},
		{name: "shorts", input: "https://www.youtube.com/shorts/dQw4w9WgXcQ"},
		{name: "no scheme", input: "youtu.be/dQw4w9WgXcQ"},
		{name: "surrounding space", input: "  https://youtu.be/dQw4w9WgXcQ \n"},
		{name: "empty", input: " ", wantErr: true},
		{name: "other host", input: "https://example.com/watch?v=dQw4w9WgXcQ", wantErr: true},
		{name: "short id", input: "https://www.youtube.com/watch?v=dQw4w9", wantErr: true},
		{name: "playlist", input: "https://www.youtube.com/playlist?list=PL1234567890", wantErr: true},
		{name: "channel", input: "https://www.youtube.com/@rick", wantErr: true},
		{name: "ftp", input: "ftp://youtu.be/dQw4w9WgXcQ", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ValidateURL(test.input)
			if test.wantErr {
				if CategoryOf(err) != CategoryInvalidURL {
					t.Fatalf("expected invalid url for %q, got %v", test.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", test.input, err)
			}
			if got != want {
				t.Fatalf("ValidateURL(%q) = %q, want %q", test.input, got, want)
			}
		})
	}
}

func TestIsRestrictedAccess(t *testing.T) {
	tests := []struct {
		name       string
		errMsg     string
		wantResult bool
	}{
		{name: "nil error", errMsg: "", wantResult: false},
		{name: "private video", errMsg: "This video is private", wantResult: true},
		{name: "sign in required", errMsg: "Please sign in to view", wantResult: true},
		{name: "members only", errMsg: "This content is members only", wantResult: true},
		{name: "age restricted", errMsg: "This video is age-restricted", wantResult: true},
		{name: "not available", errMsg: "Video not available in your country", wantResult: true},
		{name: "case insensitive", errMsg: "PRIVATE VIDEO", wantResult: true},
		{name: "network error", errMsg: "network timeout", wantResult: false},
		{name: "false positive - availability", errMsg: "check availability", wantResult: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var err error
			if test.errMsg != "" {
				err = fmt.Errorf("%s", test.errMsg)
			}
			if result := isRestrictedAccess(err); result != test.wantResult {
				t.Fatalf("isRestrictedAccess(%v) = %v, want %v", err, result, test.wantResult)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	offline := ProbeFunc(func(context.Context) error { return errors.New("ping: unknown host") })
	failing := &mockYouTubeClient{getVideoFn: func(ctx context.Context, url string) (*youtube.Video, error) {
		return nil, errors.New("this video is private")
	}}
	tests := []struct {
		name   string
		url    string
		client videoClient
		probe  NetworkProbe
		want   ErrorCategory
		code   int
	}{
		{name: "invalid url", url: "https://example.com", client: &mockYouTubeClient{}, want: CategoryInvalidURL, code: 2},
		{name: "offline", url: testURL, client: &mockYouTubeClient{}, probe: offline, want: CategoryNetworkUnavailable, code: 3},
		{name: "metadata failure", url: testURL, client: failing, want: CategoryCatalogUnavailable, code: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requested bool
			if m, ok := tt.client.(*mockYouTubeClient); ok && m.getVideoFn == nil {
				m.getVideoFn = func(ctx context.Context, url string) (*youtube.Video, error) {
					requested = true
					return testVideo(nil), nil
				}
			}
			_, err := NewResolver(tt.client, tt.probe).Resolve(context.Background(), tt.url)
			if CategoryOf(err) != tt.want {
				t.Fatalf("category = %s, want %s (%v)", CategoryOf(err), tt.want, err)
			}
			if ExitCode(err) != tt.code {
				t.Fatalf("exit code = %d, want %d", ExitCode(err), tt.code)
			}
			if requested {
				t.Fatal("metadata requested after an early failure")
			}
		})
	}
}
