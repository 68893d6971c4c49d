package preview

import (
	"path/filepath"
	"strings"
)

// Category is the content family chosen from a file extension. It is the
// single extension table used by both the factory and the thumbnail code.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryArchive
	CategoryImage
	CategoryAudio
	CategoryVideo
	CategoryFont
	CategorySvg
	CategoryPdf
	CategoryIso
	CategoryNotebook
	CategoryOffice
	CategoryEpub
	CategoryTorrent
)

func (c Category) String() string {
	switch c {
	case CategoryArchive:
		return "archive"
	case CategoryImage:
		return "image"
	case CategoryAudio:
		return "audio"
	case CategoryVideo:
		return "video"
	case CategoryFont:
		return "font"
	case CategorySvg:
		return "svg"
	case CategoryPdf:
		return "pdf"
	case CategoryIso:
		return "iso"
	case CategoryNotebook:
		return "notebook"
	case CategoryOffice:
		return "office"
	case CategoryEpub:
		return "epub"
	case CategoryTorrent:
		return "torrent"
	default:
		return "unknown"
	}
}

var categoryByExt = map[string]Category{
	"zip": CategoryArchive, "jar": CategoryArchive, "apk": CategoryArchive, "whl": CategoryArchive,
	"tar": CategoryArchive, "gz": CategoryArchive, "tgz": CategoryArchive, "bz2": CategoryArchive,
	"tbz2": CategoryArchive, "xz": CategoryArchive, "txz": CategoryArchive, "zst": CategoryArchive,
	"lzma": CategoryArchive, "lz4": CategoryArchive, "7z": CategoryArchive, "rar": CategoryArchive,

	"png": CategoryImage, "jpg": CategoryImage, "jpeg": CategoryImage, "gif": CategoryImage,
	"bmp": CategoryImage, "webp": CategoryImage, "tif": CategoryImage, "tiff": CategoryImage,
	"ico": CategoryImage, "heic": CategoryImage, "avif": CategoryImage, "psd": CategoryImage,

	"mp3": CategoryAudio, "flac": CategoryAudio, "wav": CategoryAudio, "ogg": CategoryAudio,
	"opus": CategoryAudio, "m4a": CategoryAudio, "aac": CategoryAudio, "wma": CategoryAudio,

	"mp4": CategoryVideo, "mkv": CategoryVideo, "webm": CategoryVideo, "avi": CategoryVideo,
	"mov": CategoryVideo, "wmv": CategoryVideo, "flv": CategoryVideo, "m4v": CategoryVideo,
	"mpg": CategoryVideo, "mpeg": CategoryVideo,

	"ttf": CategoryFont, "otf": CategoryFont, "woff": CategoryFont, "woff2": CategoryFont,

	"svg": CategorySvg,
	"pdf": CategoryPdf,
	"iso": CategoryIso,

	"ipynb": CategoryNotebook,

	"doc": CategoryOffice, "docx": CategoryOffice, "odt": CategoryOffice, "xls": CategoryOffice,
	"xlsx": CategoryOffice, "ods": CategoryOffice, "ppt": CategoryOffice, "pptx": CategoryOffice,
	"odp": CategoryOffice, "rtf": CategoryOffice,

	"epub": CategoryEpub,

	"torrent": CategoryTorrent,
}

// Extension returns the lower-cased extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// CategoryOf classifies path by its lower-cased extension.
func CategoryOf(path string) Category {
	return categoryByExt[Extension(path)]
}
