package printing

import (
	"context"
	"time"
)

const (
	RenderPathPDF = "pdf"
	RenderPathRaw = "raw"
)

// Rendered is the output of a RenderChain. PrimaryErr holds the PDF engine's
// failure when the raw document was used instead.
type Rendered struct {
	Data       []byte
	Path       string
	PrimaryErr error
}

// RenderChain tries the PDF engine once and otherwise falls back to the raw
// PCL/PJL document. The fallback cannot fail, so neither can the chain.
type RenderChain struct {
	Engine PDFEngine
}

func (c RenderChain) Render(ctx context.Context, html string, req Request, printedAt time.Time, scratch Scratch) Rendered {
	if c.Engine != nil {
		pdf, err := c.Engine.RenderPDF(ctx, html, scratch)
		if err == nil && len(pdf) > 0 {
			return Rendered{Data: pdf, Path: RenderPathPDF}
		}
		if err == nil {
			err = ErrRenderEngineFailed
		}
		return Rendered{
			Data:       BuildRawDocument(req.Bill, req.Company, printedAt),
			Path:       RenderPathRaw,
			PrimaryErr: err,
		}
	}

	return Rendered{
		Data:       BuildRawDocument(req.Bill, req.Company, printedAt),
		Path:       RenderPathRaw,
		PrimaryErr: ErrRenderEngineUnavailable,
	}
}
