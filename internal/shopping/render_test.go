package shopping

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestFormatLine(t *testing.T) {
	got := FormatLine(3, Item{Name: "sugar", Unit: "g", TotalAmount: 150})
	want := "3. sugar – 150 g"
	if got != want {
		t.Errorf("FormatLine = %q, want %q", got, want)
	}
}

func TestRenderText(t *testing.T) {
	items := []Item{
		{Name: "sugar", Unit: "g", TotalAmount: 150},
		{Name: "egg", Unit: "pcs", TotalAmount: 3},
	}
	var buf bytes.Buffer
	if err := RenderText(&buf, items); err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	want := "Shopping list\n\n1. sugar – 150 g\n2. egg – 3 pcs\n"
	if buf.String() != want {
		t.Errorf("RenderText =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestRenderTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderText(&buf, []Item{}); err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	if buf.String() != "Shopping list\n\n" {
		t.Errorf("RenderText(empty) = %q", buf.String())
	}
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	items := []Item{{Name: "sugar", Unit: "g", TotalAmount: 150}}
	if err := RenderPDF(&buf, items, PDFOptions{}); err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF-") {
		t.Errorf("output does not look like a PDF: %q", buf.String()[:min(20, buf.Len())])
	}
}

func TestRenderPDFPaginates(t *testing.T) {
	var items []Item
	for i := 0; i < 120; i++ {
		items = append(items, Item{Name: "item", Unit: "g", TotalAmount: int64(i)})
	}

	doc, err := newDocument(items, PDFOptions{})
	if err != nil {
		t.Fatalf("newDocument: %v", err)
	}
	if doc.PageCount() < 2 {
		t.Errorf("pages = %d, want more than one for 120 lines", doc.PageCount())
	}

	short, _ := newDocument(items[:3], PDFOptions{})
	if short.PageCount() != 1 {
		t.Errorf("pages for 3 lines = %d, want 1", short.PageCount())
	}
}

func TestRenderPDFMissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPDF(&buf, nil, PDFOptions{FontPath: "/nonexistent/font.ttf"})
	if err == nil {
		t.Error("expected error for missing font file")
	}
}

func TestRenderPDFWithoutFontRejectsNonLatin(t *testing.T) {
	var buf bytes.Buffer
	items := []Item{
		{Name: "sugar", Unit: "g", TotalAmount: 150},
		{Name: "Молоко", Unit: "мл", TotalAmount: 150},
	}
	err := RenderPDF(&buf, items, PDFOptions{})
	if !errors.Is(err, ErrNeedsFont) {
		t.Fatalf("err = %v, want ErrNeedsFont", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes on failure", buf.Len())
	}
}

func TestRenderPDFWithoutFontAcceptsWesternEuropean(t *testing.T) {
	var buf bytes.Buffer
	items := []Item{{Name: "crème fraîche", Unit: "g", TotalAmount: 200}}
	if err := RenderPDF(&buf, items, PDFOptions{}); err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
}
