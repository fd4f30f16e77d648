package shopping

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const (
	// Title heads both renderings.
	Title = "Shopping list"

	fontSize   = 14
	lineHeight = 9
)

// ErrNeedsFont is returned by RenderPDF when a line contains characters the
// built-in cp1252 font cannot show and no UTF-8 font is configured.
var ErrNeedsFont = errors.New("shopping list needs a UTF-8 font")

// FormatLine renders one numbered list entry. index starts at 1.
func FormatLine(index int, it Item) string {
	return fmt.Sprintf("%d. %s – %d %s", index, it.Name, it.TotalAmount, it.Unit)
}

// RenderText writes the list as UTF-8 plain text, one entry per line.
func RenderText(w io.Writer, items []Item) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", Title)
	for i, it := range items {
		fmt.Fprintln(bw, FormatLine(i+1, it))
	}
	return bw.Flush()
}

// PDFOptions controls the PDF rendering.
type PDFOptions struct {
	// FontPath points to a TTF font used for full UTF-8 output. Without it
	// the built-in Helvetica is used and text outside cp1252 is rejected
	// with ErrNeedsFont.
	FontPath string
}

// RenderPDF writes the list as an A4 PDF, starting a new page whenever the
// current one fills up.
func RenderPDF(w io.Writer, items []Item, opts PDFOptions) error {
	doc, err := newDocument(items, opts)
	if err != nil {
		return err
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func newDocument(items []Item, opts PDFOptions) (*fpdf.Fpdf, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(Title, true)
	doc.SetAutoPageBreak(true, 20)

	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = FormatLine(i+1, it)
	}

	tr := func(s string) string { return s }
	if opts.FontPath != "" {
		doc.AddUTF8Font("list", "", opts.FontPath)
		doc.SetFont("list", "", fontSize)
	} else {
		for _, line := range lines {
			if _, err := charmap.Windows1252.NewEncoder().String(line); err != nil {
				return nil, fmt.Errorf("%w: %q", ErrNeedsFont, line)
			}
		}
		doc.SetFont("Helvetica", "", fontSize)
		tr = doc.UnicodeTranslatorFromDescriptor("")
	}
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	doc.AddPage()
	doc.SetFontSize(fontSize + 4)
	doc.CellFormat(0, lineHeight+3, tr(Title), "", 1, "L", false, 0, "")
	doc.Ln(4)
	doc.SetFontSize(fontSize)

	for _, line := range lines {
		doc.CellFormat(0, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return doc, nil
}
