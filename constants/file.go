package constants

import "strings"

// Document formats accepted by the extraction service.
const (
	IMAGE = "IMAGE"
	PDF   = "PDF"
	DOCX  = "DOCX"
	TXT   = "TXT"
)

// FileTypes holds the allowed values for the format field of an extraction job.
var FileTypes = []string{IMAGE, PDF, DOCX, TXT}

// extToFormat maps a normalized extension to its document format.
var extToFormat = map[string]string{
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"png":  IMAGE,
	"gif":  IMAGE,
	"bmp":  IMAGE,
	"tiff": IMAGE,
	"tif":  IMAGE,
	"webp": IMAGE,
	"heic": IMAGE,
	"heif": IMAGE,
	"pdf":  PDF,
	"doc":  DOCX,
	"docx": DOCX,
	"txt":  TXT,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the document format for ext, or "" when unsupported.
func MapExtToFormat(ext string) string {
	return extToFormat[NormalizeExt(ext)]
}

// IsHEICExt reports whether ext needs an external converter before decoding.
func IsHEICExt(ext string) bool {
	e := NormalizeExt(ext)
	return e == "heic" || e == "heif"
}

// IsAllowedExt reports whether ext maps to a supported format.
func IsAllowedExt(ext string) bool {
	return MapExtToFormat(ext) != ""
}
