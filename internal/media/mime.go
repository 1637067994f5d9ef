package media

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var mimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",

	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
	"m4v":  "video/mp4",

	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",

	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
	"rtf":  "application/rtf",
}

// MimeType returns the MIME type for filename, falling back to "{kind}/*"
// for unknown extensions.
func MimeType(filename string, kind Kind) string {
	if mt, ok := mimeTypes[extension(filename)]; ok {
		return mt
	}
	return string(kind) + "/*"
}

// DetectMIME sniffs the content type of data.
func DetectMIME(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(data).String()
}

func extension(filename string) string {
	if i := strings.IndexAny(filename, "?#"); i >= 0 && IsURL(filename) {
		filename = filename[:i]
	}
	ext := path.Ext(filename)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
