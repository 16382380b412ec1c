package printer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPPrinter forwards jobs to a print gateway that accepts raw PDF bodies.
type HTTPPrinter struct {
	endpoint string
	queue    string
	client   *http.Client
}

// NewHTTP returns an HTTPPrinter posting to endpoint.
func NewHTTP(endpoint, queue string, timeout time.Duration) *HTTPPrinter {
	return &HTTPPrinter{
		endpoint: strings.TrimRight(endpoint, "/"),
		queue:    queue,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Print posts the job to {endpoint}/jobs. Any 2xx counts as accepted.
func (p *HTTPPrinter) Print(ctx context.Context, job Job) error {
	q := url.Values{}
	q.Set("queue", p.queue)
	q.Set("copies", strconv.Itoa(max(job.Copies, 1)))
	q.Set("duplex", strconv.FormatBool(job.Duplex))
	if job.Name != "" {
		q.Set("title", job.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/jobs?"+q.Encode(), bytes.NewReader(job.Data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: gateway returned %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
