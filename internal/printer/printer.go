package printer

import (
	"context"
	"errors"
	"fmt"

	"printdesk/internal/config"
)

// Job is one print submission. Data is a printable PDF.
type Job struct {
	Name   string
	Data   []byte
	Copies int
	Duplex bool
}

// Printer submits jobs to a physical or virtual print queue.
type Printer interface {
	Print(ctx context.Context, job Job) error
}

// ErrRejected is wrapped by backends when the queue refuses a job.
var ErrRejected = errors.New("print job rejected")

// New selects the backend named in cfg.Backend.
func New(cfg config.PrinterConfig) (Printer, error) {
	switch cfg.Backend {
	case "", "lp":
		return NewLP(cfg.LPPath, cfg.Name, cfg.Timeout), nil
	case "http":
		if cfg.URL == "" {
			return nil, errors.New("PRINTER_URL is required for the http backend")
		}
		return NewHTTP(cfg.URL, cfg.Name, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown printer backend %q", cfg.Backend)
	}
}
