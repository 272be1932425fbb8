// Package filetype maps file-name extensions to the content types the
// cabinet stores alongside each file record. The table is compatibility
// data: unknown extensions fall back to PLAINTEXT.
package filetype

import (
	"path/filepath"
	"strings"
)

// Default is the type assigned when the extension is not in the table.
const Default = "PLAINTEXT"

var byExtension = map[string]string{
	".js":   "JAVASCRIPT",
	".json": "JSON",
	".html": "HTMLDOC",
	".htm":  "HTMLDOC",
	".css":  "STYLESHEET",
	".xml":  "XMLDOC",
	".xsd":  "XSD",
	".csv":  "CSV",
	".txt":  "PLAINTEXT",
	".pdf":  "PDF",
	".png":  "PNGIMAGE",
	".jpg":  "JPGIMAGE",
	".jpeg": "JPGIMAGE",
	".gif":  "GIFIMAGE",
	".bmp":  "BMPIMAGE",
	".tif":  "TIFFIMAGE",
	".tiff": "TIFFIMAGE",
	".ico":  "ICON",
	".svg":  "SVG",
	".zip":  "ZIP",
	".tar":  "TAR",
	".gz":   "GZIP",
	".doc":  "WORD",
	".docx": "WORD",
	".xls":  "EXCEL",
	".xlsx": "EXCEL",
	".ppt":  "POWERPOINT",
	".pptx": "POWERPOINT",
	".mp3":  "MP3",
	".mpg":  "MPEGMOVIE",
	".swf":  "FLASH",
	".eml":  "MESSAGERFC",
	".ftl":  "FREEMARKER",
}

// ForName returns the cabinet content type for the given file name.
func ForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := byExtension[ext]; ok {
		return t
	}
	return Default
}

// IsTextual reports whether the type is stored as text rather than binary.
// Textual files are uploaded with utf8 encoding, everything else as base64.
func IsTextual(fileType string) bool {
	switch fileType {
	case "JAVASCRIPT", "JSON", "HTMLDOC", "STYLESHEET", "XMLDOC", "XSD",
		"CSV", "PLAINTEXT", "SVG", "FREEMARKER", "MESSAGERFC":
		return true
	}
	return false
}
