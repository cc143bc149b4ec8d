package downloader

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// StreamKind tells whether a stream carries video, audio, or both.
type StreamKind string

const (
	KindVideoOnly StreamKind = "video"
	KindAudioOnly StreamKind = "audio"
	KindCombined  StreamKind = "video+audio"
)

// StreamDescriptor is one remote encoding variant of the source media.
type StreamDescriptor struct {
	ID           int
	Kind         StreamKind
	MimeType     string
	Resolution   string
	FPS          int
	VideoCodec   string
	AudioCodec   string
	Bitrate      int
	AudioBitrate string
	Size         int64
}

// CaptionTrack is a caption language offered by the video.
type CaptionTrack struct {
	Code    string
	Name    string
	BaseURL string
}

// Catalog is everything one resolution call learned about a video.
// It is built fresh per invocation and never mutated afterwards.
type Catalog struct {
	ID           string
	Author       string
	Title        string
	Views        int
	PublishDate  time.Time
	Duration     time.Duration
	ThumbnailURL string
	Streams      []StreamDescriptor
	Captions     map[string]CaptionTrack
	MaxRes       mo.Option[Tier]

	byID    map[int]StreamDescriptor
	video   *youtube.Video
	formats map[int]*youtube.Format
}

// Get returns the stream with the given id.
func (c *Catalog) Get(id int) (StreamDescriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Has reports whether id resolves in the catalog. The zero id means
// "no stream required" and always resolves.
func (c *Catalog) Has(id int) bool {
	if id == 0 {
		return true
	}
	_, ok := c.byID[id]
	return ok
}

// Filter returns the streams whose resolution equals res, in catalog order.
func (c *Catalog) Filter(res string) []StreamDescriptor {
	return lo.Filter(c.Streams, func(d StreamDescriptor, _ int) bool { return d.Resolution == res })
}

// CaptionCodes returns the available caption codes, sorted.
func (c *Catalog) CaptionCodes() []string {
	codes := lo.Keys(c.Captions)
	sort.Strings(codes)
	return codes
}

// FileTitle is the sanitized "author - title" used for published file names.
func (c *Catalog) FileTitle() string {
	return sanitizeTitle(c.Author + " - " + c.Title)
}

func (c *Catalog) format(id int) (*youtube.Format, bool) {
	f, ok := c.formats[id]
	return f, ok
}

// Resolver turns a URL into a Catalog.
type Resolver struct {
	client videoClient
	probe  NetworkProbe
}

// NewResolver builds a Resolver. A nil probe skips the reachability check.
func NewResolver(client videoClient, probe NetworkProbe) *Resolver {
	return &Resolver{client: client, probe: probe}
}

// Resolve validates raw, checks reachability and fetches the stream catalog.
// Remote failures are not retried.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*Catalog, error) {
	link, err := ValidateURL(raw)
	if err != nil {
		return nil, err
	}
	if r.probe != nil {
		if err := r.probe.Probe(ctx); err != nil {
			return nil, wrapCategory(CategoryNetworkUnavailable, err)
		}
	}
	video, err := r.client.GetVideoContext(ctx, link)
	if err != nil {
		if isRestrictedAccess(err) {
			return nil, wrapCategory(CategoryCatalogUnavailable, fmt.Errorf("video is restricted or unavailable: %w", err))
		}
		return nil, wrapCategory(CategoryCatalogUnavailable, fmt.Errorf("fetching metadata: %w", err))
	}
	return newCatalog(video), nil
}

func newCatalog(video *youtube.Video) *Catalog {
	catalog := &Catalog{
		ID:           video.ID,
		Author:       video.Author,
		Title:        video.Title,
		Views:        video.Views,
		PublishDate:  video.PublishDate,
		Duration:     video.Duration,
		ThumbnailURL: bestThumbnailURL(video),
		Captions:     map[string]CaptionTrack{},
		byID:         map[int]StreamDescriptor{},
		video:        video,
		formats:      map[int]*youtube.Format{},
	}

	for i := range video.Formats {
		f := &video.Formats[i]
		if _, dup := catalog.byID[f.ItagNo]; dup {
			continue
		}
		d := describeFormat(f)
		catalog.Streams = append(catalog.Streams, d)
		catalog.byID[d.ID] = d
		catalog.formats[d.ID] = f
	}

	for _, track := range video.CaptionTracks {
		if track.LanguageCode == "" {
			continue
		}
		if _, dup := catalog.Captions[track.LanguageCode]; dup {
			continue
		}
		catalog.Captions[track.LanguageCode] = CaptionTrack{
			Code:    track.LanguageCode,
			Name:    track.Name.SimpleText,
			BaseURL: track.BaseURL,
		}
	}

	catalog.MaxRes = findMaxRes(catalog)
	return catalog
}

// findMaxRes walks the video tiers from highest to lowest and stops at the
// first one with any stream of that resolution.
func findMaxRes(c *Catalog) mo.Option[Tier] {
	for _, t := range VideoTiers() {
		if len(c.Filter(string(t))) > 0 {
			return mo.Some(t)
		}
	}
	return mo.None[Tier]()
}

var (
	qualityLabelRegex = regexp.MustCompile(`^(\d+p)`)
	codecsRegex       = regexp.MustCompile(`codecs="([^"]*)"`)
)

func describeFormat(f *youtube.Format) StreamDescriptor {
	d := StreamDescriptor{
		ID:       f.ItagNo,
		MimeType: strings.TrimSpace(strings.SplitN(f.MimeType, ";", 2)[0]),
		FPS:      f.FPS,
		Bitrate:  bitrateForFormat(f),
		Size:     f.ContentLength,
	}

	hasVideo := f.Width > 0 || f.Height > 0 || f.QualityLabel != ""
	hasAudio := f.AudioChannels > 0
	switch {
	case hasVideo && hasAudio:
		d.Kind = KindCombined
	case hasVideo:
		d.Kind = KindVideoOnly
	default:
		d.Kind = KindAudioOnly
	}

	if hasVideo {
		if m := qualityLabelRegex.FindStringSubmatch(f.QualityLabel); m != nil {
			d.Resolution = m[1]
		} else if f.Height > 0 {
			d.Resolution = strconv.Itoa(f.Height) + "p"
		}
	}

	var codecs []string
	if m := codecsRegex.FindStringSubmatch(f.MimeType); m != nil {
		codecs = lo.Map(strings.Split(m[1], ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	}
	switch d.Kind {
	case KindCombined:
		if len(codecs) > 0 {
			d.VideoCodec = codecs[0]
		}
		if len(codecs) > 1 {
			d.AudioCodec = codecs[1]
		}
	case KindVideoOnly:
		if len(codecs) > 0 {
			d.VideoCodec = codecs[0]
		}
	case KindAudioOnly:
		if len(codecs) > 0 {
			d.AudioCodec = codecs[0]
		}
	}
	if hasAudio && d.Bitrate > 0 {
		d.AudioBitrate = fmt.Sprintf("%dkbps", d.Bitrate/1000)
	}
	return d
}

func bestThumbnailURL(video *youtube.Video) string {
	var best youtube.Thumbnail
	for _, thumb := range video.Thumbnails {
		if thumb.URL == "" {
			continue
		}
		if best.URL == "" || thumb.Width*thumb.Height > best.Width*best.Height {
			best = thumb
		}
	}
	if best.URL != "" {
		return best.URL
	}
	if video.ID != "" {
		return "https://i.ytimg.com/vi/" + video.ID + "/maxresdefault.jpg"
	}
	return ""
}

func bitrateForFormat(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return 0
}

var invalidTitleChars = regexp.MustCompile(`[\\/*?:"<>|]`)

func sanitizeTitle(name string) string {
	clean := invalidTitleChars.ReplaceAllString(name, "_")
	clean = strings.TrimSpace(clean)
	if clean == "" || clean == "-" {
		return "video"
	}
	return clean
}
