// Package textextract pulls plain text out of uploaded study material so it
// can be indexed. PPTX and DOCX are both OOXML zip containers; PDF goes
// through ledongthuc/pdf.
package textextract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
)

type ExtractedText struct {
	Content string
	Pages   int
}

// Extract returns the plain text of data interpreted as sourceKind.
// Plain-text kinds (txt, url, transcript) are passed through unchanged.
func Extract(data io.ReaderAt, size int64, sourceKind string) (*ExtractedText, error) {
	switch sourceKind {
	case models.SourcePDF:
		return extractPDF(data, size)
	case models.SourceDOCX:
		return extractOOXML(data, size, "word/document.xml")
	case models.SourcePPTX:
		return extractPPTX(data, size)
	case models.SourceText, models.SourceWebURL, models.SourceTranscript:
		return extractPlain(data, size)
	default:
		return nil, fmt.Errorf("unsupported source kind: %s", sourceKind)
	}
}

// KindForFilename maps a file extension to a source kind, or "" if
// unsupported.
func KindForFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.SourcePDF
	case ".docx":
		return models.SourceDOCX
	case ".pptx":
		return models.SourcePPTX
	case ".txt", ".md":
		return models.SourceText
	case ".vtt", ".srt":
		return models.SourceTranscript
	}
	return ""
}

func extractPDF(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return &ExtractedText{Content: buf.String(), Pages: numPages}, nil
}

func extractOOXML(data io.ReaderAt, size int64, part string) (*ExtractedText, error) {
	reader, err := zip.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	for _, f := range reader.File {
		if f.Name != part {
			continue
		}
		text, err := readXMLText(f)
		if err != nil {
			return nil, err
		}
		return &ExtractedText{Content: text, Pages: 1}, nil
	}
	return nil, fmt.Errorf("archive has no %s", part)
}

func extractPPTX(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := zip.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	// Slide parts are named ppt/slides/slideN.xml; sort for stable order.
	var slides []*zip.File
	for _, f := range reader.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].Name < slides[j].Name })

	var buf strings.Builder
	for _, f := range slides {
		text, err := readXMLText(f)
		if err != nil {
			return nil, err
		}
		buf.WriteString(text)
		buf.WriteString("\n\n")
	}
	return &ExtractedText{Content: strings.TrimSpace(buf.String()), Pages: len(slides)}, nil
}

func extractPlain(data io.ReaderAt, size int64) (*ExtractedText, error) {
	buf := make([]byte, size)
	if _, err := data.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return &ExtractedText{Content: string(bytes.TrimSpace(buf)), Pages: 1}, nil
}

func readXMLText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}
	return stripXMLTags(string(content)), nil
}

func stripXMLTags(s string) string {
	var result strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			result.WriteRune(' ')
		case !inTag:
			result.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}
