package uploader

import (
	"path"
	"strings"
)

type Category string

const (
	Image Category = "image"
	Video Category = "video"
	Audio Category = "audio"
	PDF   Category = "pdf"
	Text  Category = "text"
	Other Category = "other"
)

const mib = 1 << 20

// DefaultTextThreshold is used for text files unless overridden
const DefaultTextThreshold = 10 * mib

var extensions = map[string]Category{
	"png": Image, "jpg": Image, "jpeg": Image, "gif": Image, "webp": Image, "avif": Image, "svg": Image,
	"mp4": Video, "mov": Video, "mkv": Video, "webm": Video, "avi": Video,
	"mp3": Audio, "wav": Audio, "ogg": Audio, "flac": Audio, "m4a": Audio,
	"pdf": PDF,
	"txt": Text, "md": Text, "json": Text, "csv": Text, "log": Text,
}

// CategoryOf picks the category from the file extension
func CategoryOf(name string) Category {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if c, ok := extensions[ext]; ok {
		return c
	}

	return Other
}

// Previewable reports whether files of this category can be rendered locally
// before they are uploaded
func (c Category) Previewable() bool {
	return c != Other && c != ""
}

// Thresholds holds the size per category at which an upload needs to be
// confirmed before it starts
type Thresholds map[Category]int64

func DefaultThresholds() Thresholds {
	return Thresholds{
		Image: 3 * mib,
		Video: 200 * mib,
		Audio: 120 * mib,
		PDF:   60 * mib,
		Text:  DefaultTextThreshold,
		Other: 80 * mib,
	}
}

// For returns the threshold of c, falling back to Other
func (t Thresholds) For(c Category) int64 {
	if v, ok := t[c]; ok && v > 0 {
		return v
	}

	return t[Other]
}

var labels = map[Category]string{
	Image: "image",
	Video: "video",
	Audio: "audio",
	PDF:   "document",
	Text:  "text file",
	Other: "file",
}
