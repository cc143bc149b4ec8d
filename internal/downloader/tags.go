package downloader

import (
	"fmt"
	"os"

	id3v2 "github.com/bogem/id3v2/v2"
)

// AudioTags are the ID3 frames written to a produced mp3.
type AudioTags struct {
	Title  string
	Artist string
	Album  string
	// Cover is a JPEG file embedded as front cover art. Optional.
	Cover string
}

func tagsForCatalog(c *Catalog, cover string) AudioTags {
	return AudioTags{
		Title:  c.Title,
		Artist: c.Author,
		Album:  c.Author,
		Cover:  cover,
	}
}

func embedID3Tags(tags AudioTags, outputPath string) error {
	tag, err := id3v2.Open(outputPath, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(orUnknown(tags.Title))
	tag.SetArtist(orUnknown(tags.Artist))
	tag.SetAlbum(orUnknown(tags.Album))

	if tags.Cover != "" {
		artwork, err := os.ReadFile(tags.Cover)
		if err != nil {
			return fmt.Errorf("read cover: %w", err)
		}
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     artwork,
		})
	}
	return tag.Save()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
