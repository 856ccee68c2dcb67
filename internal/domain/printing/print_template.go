package printing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared"
)

const (
	maxTemplateNameLength    = 100
	maxTemplateContentLength = 512 * 1024 // 512KB
)

// PrintTemplate is an HTML template bound to a document type. Templates for
// the platform documents are compiled in; this type also carries the layout
// settings the renderer needs.
type PrintTemplate struct {
	ID           uuid.UUID
	DocumentType DocType     // Type of document this template is for
	Name         string      // Template name
	Content      string      // HTML template content
	PaperSize    PaperSize   // Paper size (A4, Letter, receipt)
	Orientation  Orientation // Page orientation (portrait/landscape)
	Margins      Margins     // Page margins
}

// NewPrintTemplate creates a new print template
func NewPrintTemplate(docType DocType, name, content string, paperSize PaperSize) (*PrintTemplate, error) {
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOC_TYPE", "Unknown document type: "+string(docType))
	}
	if err := validateTemplateName(name); err != nil {
		return nil, err
	}
	if err := validateTemplateContent(content); err != nil {
		return nil, err
	}
	if !paperSize.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAPER_SIZE", "Unknown paper size: "+string(paperSize))
	}

	template := &PrintTemplate{
		ID:           uuid.New(),
		DocumentType: docType,
		Name:         strings.TrimSpace(name),
		Content:      content,
		PaperSize:    paperSize,
		Orientation:  OrientationPortrait,
		Margins:      DefaultMargins(),
	}

	// Use receipt margins for receipt paper sizes
	if paperSize.IsReceipt() {
		template.Margins = ReceiptMargins()
	}

	return template, nil
}

func validateTemplateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_TEMPLATE_NAME", "Template name cannot be empty")
	}
	if len(name) > maxTemplateNameLength {
		return shared.NewDomainError("INVALID_TEMPLATE_NAME", "Template name is too long")
	}
	return nil
}

func validateTemplateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return shared.NewDomainError("INVALID_TEMPLATE_CONTENT", "Template content cannot be empty")
	}
	if len(content) > maxTemplateContentLength {
		return shared.NewDomainError("INVALID_TEMPLATE_CONTENT", "Template content is too large")
	}
	return nil
}
