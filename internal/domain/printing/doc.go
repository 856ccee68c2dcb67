// Package printing holds the document vocabulary for printable artifacts:
// booking receipts and claim statements. The rendering machinery lives in
// the infrastructure layer.
package printing
