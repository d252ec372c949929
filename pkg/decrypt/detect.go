package decrypt

import (
	"bytes"
	"regexp"
)

const headerWindow = 1024

var (
	pdfHeader = []byte("%PDF-")

	// /Encrypt followed by an indirect reference ("12 0 R") or an inline dictionary.
	encryptEntry = regexp.MustCompile(`/Encrypt\s*(?:\d+\s+\d+\s+R|<<)`)
)

// IsPDF reports whether data carries a PDF header within the first 1024 bytes.
func IsPDF(data []byte) bool {
	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	return bytes.Contains(window, pdfHeader)
}

// IsEncrypted reports whether data is a PDF whose trailer or cross-reference
// stream declares an encryption dictionary. It is a structural check, not a
// full parse.
func IsEncrypted(data []byte) bool {
	if !IsPDF(data) {
		return false
	}
	return encryptEntry.Match(data)
}
