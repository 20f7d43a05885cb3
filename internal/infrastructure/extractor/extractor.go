// Package extractor converts supported document formats into plain text for
// the classification oracle. Extraction is best effort: any failure means
// the document is sent as raw bytes instead, so scanned or malformed files
// still get classified.
package extractor

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

const (
	maxChars = 8000
	maxRows  = 200
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(filename string, content []byte) (string, bool) {
	if len(content) == 0 {
		return "", false
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return plainText(content)
	case ".csv":
		return delimitedText(content, ',')
	case ".tsv":
		return delimitedText(content, '\t')
	case ".xlsx":
		return spreadsheetText(content)
	case ".pdf":
		return pdfText(content)
	default:
		return "", false
	}
}

func plainText(content []byte) (string, bool) {
	if !utf8.Valid(content) {
		return "", false
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		return "", false
	}
	return clamp(text), true
}

func delimitedText(content []byte, delimiter rune) (string, bool) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var b strings.Builder
	rows := 0
	for rows < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false
		}
		b.WriteString(strings.Join(record, ", "))
		b.WriteByte('\n')
		rows++
	}
	return finish(b.String())
}

func spreadsheetText(content []byte) (string, bool) {
	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", false
	}
	defer file.Close()

	var b strings.Builder
	rows := 0
	for _, sheet := range file.GetSheetList() {
		sheetRows, err := file.GetRows(sheet)
		if err != nil {
			return "", false
		}
		b.WriteString(sheet)
		b.WriteByte('\n')
		for _, row := range sheetRows {
			if rows >= maxRows {
				break
			}
			b.WriteString(strings.Join(row, ", "))
			b.WriteByte('\n')
			rows++
		}
	}
	return finish(b.String())
}

func pdfText(content []byte) (text string, ok bool) {
	// The pdf library panics on some malformed cross-reference tables;
	// treat that the same as any other extraction failure.
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", false
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", false
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", false
	}
	return finish(string(raw))
}

func finish(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return clamp(text), true
}

func clamp(text string) string {
	if len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
