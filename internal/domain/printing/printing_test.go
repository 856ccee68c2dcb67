package printing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperSize(t *testing.T) {
	assert.True(t, PaperSizeA4.IsValid())
	assert.True(t, PaperSizeReceipt80MM.IsValid())
	assert.False(t, PaperSize("A3").IsValid())

	w, h := PaperSizeA4.Dimensions()
	assert.Equal(t, 210, w)
	assert.Equal(t, 297, h)

	w, h = PaperSizeReceipt80MM.Dimensions()
	assert.Equal(t, 80, w)
	assert.Equal(t, 0, h, "receipt paper has variable height")

	// Unknown sizes fall back to A4
	w, h = PaperSize("A3").Dimensions()
	assert.Equal(t, 210, w)
	assert.Equal(t, 297, h)

	assert.True(t, PaperSizeReceipt80MM.IsReceipt())
	assert.False(t, PaperSizeA4.IsReceipt())
}

func TestDocType(t *testing.T) {
	assert.True(t, DocTypeBookingReceipt.IsValid())
	assert.True(t, DocTypeClaimStatement.IsValid())
	assert.False(t, DocType("INVOICE").IsValid())
	assert.Len(t, AllDocTypes(), 2)
}

func TestNewMargins(t *testing.T) {
	m, err := NewMargins(10, 15, 10, 15)
	require.NoError(t, err)
	assert.Equal(t, 10, m.Top)
	assert.Equal(t, 15, m.Right)

	_, err = NewMargins(-1, 0, 0, 0)
	assert.Error(t, err)

	_, err = NewMargins(0, 101, 0, 0)
	assert.Error(t, err)

	assert.True(t, Margins{}.IsZero())
	assert.False(t, DefaultMargins().IsZero())
	assert.True(t, DefaultMargins().Equals(Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}))
}

func TestNewPrintTemplate(t *testing.T) {
	tpl, err := NewPrintTemplate(DocTypeClaimStatement, "Claim statement", "<p>{{.ClaimNumber}}</p>", PaperSizeA4)
	require.NoError(t, err)
	assert.Equal(t, OrientationPortrait, tpl.Orientation)
	assert.Equal(t, DefaultMargins(), tpl.Margins)

	tpl, err = NewPrintTemplate(DocTypeBookingReceipt, "Receipt", "<p>{{.BookingNumber}}</p>", PaperSizeReceipt80MM)
	require.NoError(t, err)
	assert.Equal(t, ReceiptMargins(), tpl.Margins)

	_, err = NewPrintTemplate(DocType("INVOICE"), "x", "y", PaperSizeA4)
	assert.Error(t, err)

	_, err = NewPrintTemplate(DocTypeBookingReceipt, "", "y", PaperSizeA4)
	assert.Error(t, err)

	_, err = NewPrintTemplate(DocTypeBookingReceipt, "x", "   ", PaperSizeA4)
	assert.Error(t, err)

	_, err = NewPrintTemplate(DocTypeBookingReceipt, "x", strings.Repeat("a", 513*1024), PaperSizeA4)
	assert.Error(t, err)
}
