package printing

import (
	"context"
	"path/filepath"
	"time"
)

//go:generate mockgen -source=capabilities.go -destination=mock_capabilities_test.go -package=printing

// Scratch is the per-job location for temporary files. Collaborators write
// only inside Dir; the dispatcher removes Dir when the job ends.
type Scratch struct {
	Dir  string
	Name string
}

func (s Scratch) Path(ext string) string {
	return filepath.Join(s.Dir, s.Name+ext)
}

type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatRaw  Format = "raw"
)

func (f Format) Ext() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatPDF:
		return ".pdf"
	default:
		return ".prn"
	}
}

type Job struct {
	Printer string
	Title   string
	Format  Format
	Data    []byte
	Copies  int
	Scratch Scratch
}

// PDFEngine turns an HTML document into PDF bytes.
type PDFEngine interface {
	RenderPDF(ctx context.Context, html string, scratch Scratch) ([]byte, error)
}

// LocalQueue hands jobs to the operating system's print spooler.
type LocalQueue interface {
	Print(ctx context.Context, job Job) error
	Printers(ctx context.Context) ([]string, error)
}

// RawSender speaks RAW/JetDirect to network printers.
type RawSender interface {
	Send(ctx context.Context, host string, port int, data []byte) error
	Probe(ctx context.Context, host string, port int) Reachability
}

// Markup renders the receipt document for a request.
type Markup interface {
	Render(req Request, printedAt time.Time) (string, error)
}
