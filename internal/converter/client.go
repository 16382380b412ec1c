package converter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"printdesk/internal/config"
	"printdesk/internal/pagecount"
)

// maxResponseBytes bounds the rendered PDF read back from the service.
const maxResponseBytes = 64 << 20

// Client talks to an out-of-process document-to-PDF service (a LibreOffice/Gotenberg style
// endpoint). It posts the source bytes as multipart form data to {URL}/convert and
// expects application/pdf back.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ pagecount.Converter = (*Client)(nil)

// New builds a Client with an instrumented transport.
func New(cfg config.ConverterConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Convert renders data of the given format into PDF bytes.
func (c *Client) Convert(ctx context.Context, data []byte, format string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("format", format); err != nil {
		return nil, err
	}
	fw, err := mw.CreateFormFile("file", "source."+format)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("converter request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("converter returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read converter response: %w", err)
	}
	if len(out) > maxResponseBytes {
		return nil, fmt.Errorf("converter response exceeds %d bytes", maxResponseBytes)
	}
	return out, nil
}
