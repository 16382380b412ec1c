package pagecount

import (
	"path/filepath"
	"strings"
)

// Format is the closed set of document formats the counter understands.
// Each variant carries its own counting strategy; callers obtain one via ParseFormat.
type Format interface {
	Name() string
	// Supported is false only for the unknown variant.
	Supported() bool
	count(c *Counter, req countRequest) (Result, error)
}

type pdfFormat struct{}

func (pdfFormat) Name() string    { return "pdf" }
func (pdfFormat) Supported() bool { return true }

// convertedFormat covers layout-dependent inputs (word processor files, text, images)
// that must be rendered to PDF before pages can be counted.
type convertedFormat struct{ name string }

func (f convertedFormat) Name() string  { return f.name }
func (convertedFormat) Supported() bool { return true }

type unknownFormat struct{ name string }

func (f unknownFormat) Name() string  { return f.name }
func (unknownFormat) Supported() bool { return false }

var (
	PDF  Format = pdfFormat{}
	DOCX Format = convertedFormat{name: "docx"}
	DOC  Format = convertedFormat{name: "doc"}
	ODT  Format = convertedFormat{name: "odt"}
	RTF  Format = convertedFormat{name: "rtf"}
	TXT  Format = convertedFormat{name: "txt"}
	PNG  Format = convertedFormat{name: "png"}
	JPG  Format = convertedFormat{name: "jpg"}
)

var known = map[string]Format{
	"pdf":  PDF,
	"docx": DOCX,
	"doc":  DOC,
	"odt":  ODT,
	"rtf":  RTF,
	"txt":  TXT,
	"png":  PNG,
	"jpg":  JPG,
	"jpeg": JPG,
}

// ParseFormat maps a hint such as "PDF", ".docx" or "jpeg" to a Format.
// Anything unrecognised yields the unknown variant, which always fails to count.
func ParseFormat(hint string) Format {
	h := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hint), "."))
	if f, ok := known[h]; ok {
		return f
	}
	return unknownFormat{name: h}
}

// FormatFromFilename derives a Format from the file extension.
func FormatFromFilename(name string) Format {
	return ParseFormat(filepath.Ext(name))
}
