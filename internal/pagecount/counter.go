package pagecount

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Converter renders a document into PDF. It is implemented by the conversion service client.
type Converter interface {
	Convert(ctx context.Context, data []byte, format string) ([]byte, error)
}

// ConversionError reports that no countable artifact could be produced for a format.
type ConversionError struct {
	Format string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot count pages for format %q", e.Format)
	}
	return fmt.Sprintf("cannot count pages for format %q: %v", e.Format, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ErrUnsupportedFormat is wrapped by ConversionError for the unknown format variant.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Result is the outcome of a count. Rendered holds the PDF produced by the converter,
// or nil when the input was already a PDF and is itself printable.
type Result struct {
	Pages    int
	Rendered []byte
}

// Oracle is the page-count contract consumed by the ingestion pipeline.
type Oracle interface {
	Count(ctx context.Context, data []byte, f Format) (Result, error)
}

// Counter counts pages natively for PDF and through a Converter otherwise.
type Counter struct {
	conv      Converter
	pdfConfig *model.Configuration
}

var _ Oracle = (*Counter)(nil)

// NewCounter builds a Counter. conv may be nil if only PDF uploads are allowed.
func NewCounter(conv Converter) *Counter {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Counter{conv: conv, pdfConfig: conf}
}

type countRequest struct {
	ctx  context.Context
	data []byte
}

// Count returns the authoritative page count for data in format f.
func (c *Counter) Count(ctx context.Context, data []byte, f Format) (Result, error) {
	if f == nil {
		f = unknownFormat{}
	}
	return f.count(c, countRequest{ctx: ctx, data: data})
}

func (c *Counter) pdfPages(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, errors.New("empty document")
	}
	n, err := api.PageCount(bytes.NewReader(data), c.pdfConfig)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("document has no pages")
	}
	return n, nil
}

func (pdfFormat) count(c *Counter, req countRequest) (Result, error) {
	n, err := c.pdfPages(req.data)
	if err != nil {
		return Result{}, &ConversionError{Format: "pdf", Err: err}
	}
	return Result{Pages: n}, nil
}

func (f convertedFormat) count(c *Counter, req countRequest) (Result, error) {
	if c.conv == nil {
		return Result{}, &ConversionError{Format: f.name, Err: errors.New("no converter configured")}
	}
	rendered, err := c.conv.Convert(req.ctx, req.data, f.name)
	if err != nil {
		return Result{}, &ConversionError{Format: f.name, Err: err}
	}
	n, err := c.pdfPages(rendered)
	if err != nil {
		return Result{}, &ConversionError{Format: f.name, Err: fmt.Errorf("rendered output: %w", err)}
	}
	return Result{Pages: n, Rendered: rendered}, nil
}

func (f unknownFormat) count(*Counter, countRequest) (Result, error) {
	return Result{}, &ConversionError{Format: f.name, Err: ErrUnsupportedFormat}
}
