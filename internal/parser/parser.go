package parser

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bteparse/internal/doctree"
)

// Decoder converts raw document bytes into positioned runs grouped by page.
type Decoder interface {
	Decode(r io.Reader) ([][]doctree.PositionedRun, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf": true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// LooksLikePDF checks the magic header, for payloads fetched without a
// trustworthy filename or content type.
func LooksLikePDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
