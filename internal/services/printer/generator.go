package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/xelth-com/eckposgo/internal/apperr"
)

// ShelfLabel is what one printed price tag shows
type ShelfLabel struct {
	SKU   string
	Name  string
	Price float64
}

// Layout positions labels on an A4 sheet, in millimetres
type Layout struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultLayout fits 3×8 tags per page
var DefaultLayout = Layout{Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 8, GapX: 3, GapY: 2}

const pageWidth, pageHeight = 210.0, 297.0

func (l Layout) validate() error {
	if l.Cols < 1 || l.Rows < 1 {
		return apperr.Validation("layout needs at least one row and column")
	}
	if l.MarginLeft < 0 || l.MarginTop < 0 || l.GapX < 0 || l.GapY < 0 {
		return apperr.Validation("layout margins and gaps must not be negative")
	}
	if pageWidth-l.MarginLeft*2-float64(l.Cols-1)*l.GapX <= 0 || pageHeight-l.MarginTop*2-float64(l.Rows-1)*l.GapY <= 0 {
		return apperr.Validation("layout does not fit on an A4 page")
	}
	return nil
}

// ShelfLabelsPDF renders price tags with the product name, the live price
// and a QR code of the SKU for scanner lookup at the till.
func ShelfLabelsPDF(labels []ShelfLabel, l Layout) ([]byte, error) {
	if len(labels) == 0 {
		return nil, apperr.Validation("no labels to print")
	}
	if err := l.validate(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	labelW := (pageWidth - l.MarginLeft*2 - float64(l.Cols-1)*l.GapX) / float64(l.Cols)
	labelH := (pageHeight - l.MarginTop*2 - float64(l.Rows-1)*l.GapY) / float64(l.Rows)
	perPage := l.Cols * l.Rows

	for i, label := range labels {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		idx := i % perPage
		x := l.MarginLeft + float64(idx%l.Cols)*(labelW+l.GapX)
		y := l.MarginTop + float64(idx/l.Cols)*(labelH+l.GapY)

		qrPng, err := qrcode.Encode(label.SKU, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode qr for %s: %w", label.SKU, err)
		}
		imgName := fmt.Sprintf("qr_%d", i)
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(qrPng))

		// QR on the left, text block on the right
		qrSize := labelH * 0.8
		if qrSize > labelW*0.4 {
			qrSize = labelW * 0.4
		}
		pdf.ImageOptions(imgName, x+1, y+(labelH-qrSize)/2, qrSize, qrSize, false, opts, 0, "")

		textX := x + qrSize + 3
		textW := labelW - qrSize - 4

		pdf.SetFont("Arial", "", 8)
		pdf.SetXY(textX, y+2)
		pdf.CellFormat(textW, 4, tr(label.Name), "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 16)
		pdf.SetXY(textX, y+labelH/2-4)
		pdf.CellFormat(textW, 8, fmt.Sprintf("%.2f", label.Price), "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "", 6)
		pdf.SetXY(textX, y+labelH-5)
		pdf.CellFormat(textW, 3, label.SKU, "", 0, "L", false, 0, "")

		pdf.Rect(x, y, labelW, labelH, "D")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
