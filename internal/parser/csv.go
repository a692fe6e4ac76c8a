package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
)

// CSVParser handles CSV files. Rows are grouped into batches so each
// block stays a manageable size, and every batch restates the header row
// so chunks remain self-describing.
type CSVParser struct{}

func (p *CSVParser) Name() string { return "csv" }

const csvBatchSize = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*block.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &block.Document{
		Title:  titleFromFilename(filename),
		Source: filename,
	}

	l := newLayout()
	if len(records) > 0 {
		// First row is headers.
		headers := records[0]
		dataRows := records[1:]

		for i := 0; i < len(dataRows); i += csvBatchSize {
			end := i + csvBatchSize
			if end > len(dataRows) {
				end = len(dataRows)
			}

			var text strings.Builder
			text.WriteString("Headers: " + strings.Join(headers, ", "))
			for _, row := range dataRows[i:end] {
				text.WriteString("\n")
				for j, cell := range row {
					if j > 0 {
						text.WriteString(", ")
					}
					if j < len(headers) {
						text.WriteString(headers[j] + ": " + cell)
					} else {
						text.WriteString(cell)
					}
				}
			}
			doc.Blocks = append(doc.Blocks, l.body(text.String()))
		}
	}
	doc.Pages = l.page

	return doc, nil
}
