// Package printing renders booking receipts and damage claim statements
// as PDF documents.
//
// Receipts are plain tabular documents drawn directly with gofpdf through
// PDFReceiptBuilder. Claim statements carry narrative text and go through
// the HTML pipeline instead: TemplateEngine renders the statement data into
// HTML, and a PDFRenderer turns it into a PDF. Two renderers are provided,
// ChromedpRenderer (headless Chrome over the DevTools protocol) and
// WkhtmltopdfRenderer (the wkhtmltopdf command-line tool); deployments pick
// one via configuration.
package printing
