// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftest builds small PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Document returns an uncompressed PDF with one page per entry in pages.
// An empty string produces a blank page.
func Document(pages ...string) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		if text != "" {
			doc.Text(20, 30, text)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering test PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// MustDocument is Document that panics on error.
func MustDocument(pages ...string) []byte {
	data, err := Document(pages...)
	if err != nil {
		panic(err)
	}
	return data
}

// NoPages returns a well-formed PDF whose page tree is empty.
func NoPages() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}
