package printing

import (
	"context"
	"fmt"

	claimsapp "github.com/localcooks/backend/internal/application/claims"
	"github.com/localcooks/backend/internal/domain/printing"
)

// statementTemplate is the compiled-in layout for claim statements.
// Statements carry free-form narrative text, so they go through the HTML
// pipeline where escaping and flow layout come for free.
const statementTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #1a1a1a; }
  h1 { font-size: 20px; margin-bottom: 2px; }
  h2 { font-size: 14px; margin-top: 18px; border-bottom: 1px solid #ccc; padding-bottom: 3px; }
  .meta { color: #555; margin-bottom: 14px; }
  table { width: 100%; border-collapse: collapse; margin-top: 6px; }
  th, td { border: 1px solid #ccc; padding: 4px 6px; text-align: left; }
  th { background: #f2f2f2; }
  .amount { text-align: right; }
  .note { color: #555; font-style: italic; }
</style>
</head>
<body>
  <h1>Damage Claim Statement</h1>
  <div class="meta">
    Claim {{.ClaimNumber}} &middot; Booking {{.BookingNumber}} &middot; Issued {{formatDateTime .IssuedAt}}
  </div>

  <table>
    <tr><th>Status</th><td>{{statusText .Status}}</td></tr>
    <tr><th>Filed by</th><td>{{default .ManagerName "Manager"}}</td></tr>
    <tr><th>Against</th><td>{{default .ChefName "Chef"}}</td></tr>
    <tr><th>Filed amount</th><td class="amount">{{formatMoney .FiledAmount}}</td></tr>
    <tr><th>Final amount</th><td class="amount">{{formatMoney .FinalAmount}}</td></tr>
    <tr><th>Response deadline</th><td>{{formatDateTime .ResponseDeadline}}</td></tr>
  </table>

  <h2>{{.Title}}</h2>
  <p>{{.Description}}</p>

  <h2>Timeline</h2>
  <table>
    <thead><tr><th>When</th><th>Event</th><th>Note</th></tr></thead>
    <tbody>
      {{range .Timeline}}
      <tr>
        <td>{{formatDateTime .At}}</td>
        <td>{{.Label}}</td>
        <td class="note">{{.Note}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>

  {{if .Evidence}}
  <h2>Evidence</h2>
  <table>
    <thead><tr><th>File</th><th>Type</th><th>Size</th><th>Uploaded by</th><th>Uploaded at</th></tr></thead>
    <tbody>
      {{range .Evidence}}
      <tr>
        <td>{{.FileName}}</td>
        <td>{{.ContentType}}</td>
        <td class="amount">{{.Size}} bytes</td>
        <td>{{.UploadedBy}}</td>
        <td>{{formatDateTime .UploadedAt}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
  {{end}}

  {{if ne .ChargeStatus "NONE"}}
  <h2>Charge</h2>
  <table>
    <tr><th>Status</th><td>{{statusText .ChargeStatus}}</td></tr>
    {{if .ChargeID}}<tr><th>Reference</th><td>{{.ChargeID}}</td></tr>{{end}}
    {{if .ChargedAt}}<tr><th>Charged at</th><td>{{formatDateTime .ChargedAt}}</td></tr>{{end}}
  </table>
  {{end}}
</body>
</html>`

// HTMLStatementRenderer renders claim statements by binding statement data
// to the compiled-in template and handing the HTML to a PDF renderer.
type HTMLStatementRenderer struct {
	engine   *TemplateEngine
	renderer PDFRenderer
}

var _ claimsapp.StatementRenderer = (*HTMLStatementRenderer)(nil)

// NewHTMLStatementRenderer creates a statement renderer on top of the
// given PDF backend
func NewHTMLStatementRenderer(engine *TemplateEngine, renderer PDFRenderer) *HTMLStatementRenderer {
	return &HTMLStatementRenderer{
		engine:   engine,
		renderer: renderer,
	}
}

// RenderStatement renders the statement data into a PDF document
func (r *HTMLStatementRenderer) RenderStatement(ctx context.Context, data *claimsapp.StatementData) ([]byte, error) {
	if data == nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "statement data is nil", nil)
	}

	html, err := r.engine.RenderString(ctx, "claim-statement", statementTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("render statement html: %w", err)
	}

	result, err := r.renderer.Render(ctx, &RenderRequest{
		HTML:        html,
		PaperSize:   printing.PaperSizeA4,
		Orientation: printing.OrientationPortrait,
		Margins:     printing.DefaultMargins(),
		Title:       "Statement " + data.ClaimNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("render statement pdf: %w", err)
	}
	return result.PDFData, nil
}
