// Package document turns immutable order snapshots into PDF invoices and
// receipts. Template fill is pure; the PDF step runs on a pooled headless
// browser under a bounded deadline.
package document

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/mahligai-id/backoffice/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	// A4 in inches; fixed so identical snapshots produce identical pages.
	paperWidth  = 8.27
	paperHeight = 11.69
	pageMargin  = 0.4
)

// Renderer fills an HTML template from a snapshot and prints it to PDF on a
// leased browser.
type Renderer struct {
	tmpl    *template.Template
	pool    *Pool
	timeout time.Duration
	logger  *zap.Logger
}

// NewRenderer parses the embedded templates and wires the browser pool.
func NewRenderer(pool *Pool, timeout time.Duration, logger *zap.Logger) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice templates: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Renderer{tmpl: tmpl, pool: pool, timeout: timeout, logger: logger}, nil
}

// FillTemplate produces the HTML for a snapshot. Pure: same snapshot, same
// bytes.
func (r *Renderer) FillTemplate(snap *Snapshot, kind models.InvoiceKind) (string, error) {
	name := "final_invoice.html"
	if kind == models.KindPaymentReceipt {
		name = "payment_receipt.html"
	}
	if kind == models.KindPaymentReceipt && snap.Payment == nil {
		return "", fmt.Errorf("payment receipt requires a payment snapshot")
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, snap); err != nil {
		return "", fmt.Errorf("failed to fill template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Render produces PDF bytes for the snapshot. A render that times out
// damages its lease; the pool discards it rather than reuse a browser in an
// unknown state.
func (r *Renderer) Render(ctx context.Context, snap *Snapshot, kind models.InvoiceKind) ([]byte, error) {
	html, err := r.FillTemplate(snap, kind)
	if err != nil {
		return nil, err
	}

	lease, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	renderCtx, cancel := context.WithTimeout(lease.Ctx(), r.timeout)
	defer cancel()

	start := time.Now()
	pdf, err := printToPDF(renderCtx, html)
	if err != nil {
		r.pool.Release(lease, true)
		if errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("Render deadline exceeded",
				zap.Duration("timeout", r.timeout),
				zap.String("kind", string(kind)))
			return nil, fmt.Errorf("%w after %s", ErrRenderTimeout, r.timeout)
		}
		r.logger.Error("Render failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRenderBackendUnavailable, err)
	}
	r.pool.Release(lease, false)

	r.logger.Debug("Document rendered",
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(pdf)),
		zap.Duration("took", time.Since(start)))
	return pdf, nil
}

// printToPDF loads the HTML into the leased tab and prints it with fixed
// page geometry.
func printToPDF(ctx context.Context, html string) ([]byte, error) {
	var pdf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(pageMargin).
				WithMarginBottom(pageMargin).
				WithMarginLeft(pageMargin).
				WithMarginRight(pageMargin).
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	return pdf, err
}
