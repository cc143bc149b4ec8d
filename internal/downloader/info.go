package downloader

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
)

// streamRow describes the stream that would be downloaded for one tier.
type streamRow struct {
	Itag     int     `json:"itag"`
	Res      string  `json:"res"`
	MimeType string  `json:"mime_type"`
	FileSize int64   `json:"file_size"`
	FPS      *int    `json:"fps"`
	VCodec   *string `json:"vcodec"`
	ACodec   *string `json:"acodec"`
	VBitrate *string `json:"vbitrate"`
	ABitrate *string `json:"abitrate"`
	IsHDR    bool    `json:"is_hdr"`

	tier Tier
}

type rawInfo struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Author       string      `json:"author"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Views        int         `json:"views"`
	PublishedOn  string      `json:"published_on"`
	Duration     int         `json:"duration"`
	Captions     []string    `json:"captions"`
	Streams      []streamRow `json:"streams"`
}

func streamRows(catalog *Catalog) []streamRow {
	var rows []streamRow
	for _, t := range AllowedTiers(catalog) {
		candidates := CandidatesFor(t, catalog)
		if len(candidates) == 0 {
			continue
		}
		c := candidates[0]
		row := streamRow{Res: string(t), IsHDR: c.HDR, tier: t}
		if video, ok := catalog.Get(c.Video); ok {
			row.Itag = video.ID
			row.MimeType = video.MimeType
			row.FileSize += video.Size
			row.FPS = lo.EmptyableToPtr(video.FPS)
			row.VCodec = lo.EmptyableToPtr(video.VideoCodec)
			row.VBitrate = lo.ToPtr(fmt.Sprintf("%.0fkbps", float64(video.Bitrate)/1024))
			if c.Progressive() {
				row.ACodec = lo.EmptyableToPtr(video.AudioCodec)
			}
		}
		if audio, ok := catalog.Get(c.Audio); ok {
			if c.AudioOnly() {
				row.Itag = audio.ID
				row.MimeType = "audio/mp3"
			}
			row.FileSize += audio.Size
			row.ACodec = lo.EmptyableToPtr(audio.AudioCodec)
			row.ABitrate = lo.EmptyableToPtr(audio.AudioBitrate)
		}
		rows = append(rows, row)
	}
	return rows
}

// ShowInfo writes the human readable video summary and stream table.
func ShowInfo(w io.Writer, catalog *Catalog) error {
	rows := streamRows(catalog)
	if len(rows) == 0 {
		return ErrNoDownloadableStream
	}
	fmt.Fprintf(w, "\nTitle: %s\nAuthor: %s\nPublished On: %s\nDuration: %s\nViews: %d\n",
		catalog.Title, catalog.Author, publishedOn(catalog), catalog.Duration, catalog.Views)
	if codes := catalog.CaptionCodes(); len(codes) > 0 {
		fmt.Fprintf(w, "Captions: %s\n", strings.Join(codes, ", "))
	}
	fmt.Fprintln(w)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Stream", "Alias (for -s flag)", "Format", "Size", "FrameRate", "V-Codec", "A-Codec", "V-BitRate", "A-BitRate")
	for _, row := range rows {
		spec, _ := Spec(row.tier)
		fps := "none"
		if row.FPS != nil {
			fps = fmt.Sprintf("%dfps", *row.FPS)
		}
		t.Row(
			string(row.tier),
			"["+strings.Join(spec.Aliases, ", ")+"]",
			row.MimeType,
			displaySize(row.FileSize),
			fps,
			deref(row.VCodec),
			deref(row.ACodec),
			deref(row.VBitrate),
			deref(row.ABitrate),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// RawInfo writes the video summary as JSON, indented when pretty is set.
func RawInfo(w io.Writer, catalog *Catalog, pretty bool) error {
	rows := streamRows(catalog)
	if len(rows) == 0 {
		return ErrNoDownloadableStream
	}
	payload := rawInfo{
		ID:           catalog.ID,
		Title:        catalog.Title,
		Author:       catalog.Author,
		ThumbnailURL: catalog.ThumbnailURL,
		Views:        catalog.Views,
		PublishedOn:  publishedOn(catalog),
		Duration:     int(catalog.Duration.Seconds()),
		Captions:     catalog.CaptionCodes(),
		Streams:      rows,
	}
	if payload.Captions == nil {
		payload.Captions = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "    ")
	}
	return enc.Encode(payload)
}

func publishedOn(catalog *Catalog) string {
	if catalog.PublishDate.IsZero() {
		return ""
	}
	return catalog.PublishDate.Format("02/01/2006")
}

func displaySize(n int64) string {
	const gib = 1 << 30
	if n >= gib {
		return fmt.Sprintf("%.2f GB", float64(n)/gib)
	}
	return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "none"
	}
	return *s
}
