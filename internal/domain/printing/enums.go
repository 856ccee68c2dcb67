package printing

// DocType represents the type of document that can be rendered
type DocType string

const (
	// DocTypeBookingReceipt is the itemized receipt for a decided booking
	DocTypeBookingReceipt DocType = "BOOKING_RECEIPT"
	// DocTypeClaimStatement is the printable record of a damage claim
	DocTypeClaimStatement DocType = "CLAIM_STATEMENT"
)

// IsValid checks if the DocType is a valid value
func (d DocType) IsValid() bool {
	switch d {
	case DocTypeBookingReceipt, DocTypeClaimStatement:
		return true
	}
	return false
}

// String returns the string representation of DocType
func (d DocType) String() string {
	return string(d)
}

// AllDocTypes returns all valid DocType values
func AllDocTypes() []DocType {
	return []DocType{DocTypeBookingReceipt, DocTypeClaimStatement}
}

// PaperSize represents the paper size for rendering
type PaperSize string

const (
	PaperSizeA4          PaperSize = "A4"           // 210mm x 297mm
	PaperSizeLetter      PaperSize = "LETTER"       // 216mm x 279mm
	PaperSizeReceipt80MM PaperSize = "RECEIPT_80MM" // 80mm thermal receipt
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeLetter, PaperSizeReceipt80MM:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the paper dimensions in millimeters (width, height).
// For receipt paper, width is the paper width and height is variable.
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeA4:
		return 210, 297
	case PaperSizeLetter:
		return 216, 279
	case PaperSizeReceipt80MM:
		return 80, 0 // Height is variable for receipt paper
	default:
		return 210, 297 // Default to A4
	}
}

// IsReceipt returns true if this is a receipt paper size
func (p PaperSize) IsReceipt() bool {
	return p == PaperSizeReceipt80MM
}

// AllPaperSizes returns all valid PaperSize values
func AllPaperSizes() []PaperSize {
	return []PaperSize{PaperSizeA4, PaperSizeLetter, PaperSizeReceipt80MM}
}

// Orientation represents the page orientation for rendering
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

// IsValid checks if the Orientation is a valid value
func (o Orientation) IsValid() bool {
	switch o {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// String returns the string representation of Orientation
func (o Orientation) String() string {
	return string(o)
}
