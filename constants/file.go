package constants

import "strings"

// Document formats accepted by the text extraction stage.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	DOCX  = "DOCX"
	XLSX  = "XLSX"
	TXT   = "TXT"
)

// AllowedExtensions holds the default allowed file extensions for uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"docx": {},
	"xlsx": {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat maps an extension (with or without dot) to a format; "" when unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png":
		return IMAGE
	case "docx":
		return DOCX
	case "xlsx":
		return XLSX
	case "txt":
		return TXT
	default:
		return ""
	}
}
