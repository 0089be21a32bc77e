// Package parser extracts ordered text blocks from raw document bytes.
// It is the narrow parsing collaborator consumed by the ingestion
// stage; binary formats are out of scope and rejected.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptInput      = errors.New("corrupt document input")
)

// Registry dispatches on the declared document format.
type Registry struct{}

func NewRegistry() *Registry { return &Registry{} }

// Parse extracts text blocks with positional metadata. The block order
// is the document order; re-parsing identical bytes yields identical
// blocks.
func (r *Registry) Parse(data []byte, format string) ([]domain.Block, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "txt", "md", "markdown":
		return parseText(data)
	case "csv":
		return parseCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// parseText splits plain text and markdown into paragraph blocks on
// blank lines.
func parseText(data []byte) ([]domain.Block, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid UTF-8", ErrCorruptInput)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	var blocks []domain.Block
	pos := 0
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		blocks = append(blocks, domain.Block{
			Text: para,
			Metadata: domain.SegmentMetadata{
				Section:  fmt.Sprintf("paragraph %d", pos+1),
				Position: pos,
			},
		})
		pos++
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no text content", ErrCorruptInput)
	}
	return blocks, nil
}

// parseCSV renders each record as "header: value" pairs, one block per
// row, so tabular cells stay attached to their column names.
func parseCSV(data []byte) ([]domain.Block, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}
	var blocks []domain.Block
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrCorruptInput, row+1, err)
		}
		var sb strings.Builder
		for i, field := range record {
			if strings.TrimSpace(field) == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("; ")
			}
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				sb.WriteString(strings.TrimSpace(header[i]))
				sb.WriteString(": ")
			}
			sb.WriteString(strings.TrimSpace(field))
		}
		if sb.Len() > 0 {
			blocks = append(blocks, domain.Block{
				Text: sb.String(),
				Metadata: domain.SegmentMetadata{
					Section:  fmt.Sprintf("row %d", row+1),
					Position: row,
				},
			})
		}
		row++
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrCorruptInput)
	}
	return blocks, nil
}
