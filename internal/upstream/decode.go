package upstream

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/project-pearl/Dashboard-sub014/internal/domain"
)

// Encoding selects how a source's response bodies are decoded.
type Encoding string

const (
	// EncodingJSON decodes bodies as a JSON array of flat objects, the
	// compliance export format.
	EncodingJSON Encoding = "json"
	// EncodingCSV decodes bodies as header-plus-rows CSV, the
	// water-quality export format.
	EncodingCSV Encoding = "csv"
)

func (e Encoding) accept() string {
	if e == EncodingCSV {
		return "text/csv"
	}
	return "application/json"
}

// decodeRows turns a response body into raw rows. An empty or whitespace
// body is a normal end-of-data marker, not an error. CSV decoding returns
// the rows read before a mid-body failure so callers can salvage them.
func decodeRows(encoding Encoding, body []byte) ([]domain.RawRow, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if encoding == EncodingCSV {
		return decodeCSVRows(body)
	}
	return decodeJSONRows(body)
}

func decodeJSONRows(body []byte) ([]domain.RawRow, error) {
	var entries []map[string]any
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode json rows: %w", err)
	}
	rows := make([]domain.RawRow, 0, len(entries))
	for _, entry := range entries {
		row := make(domain.RawRow, len(entry))
		for key, val := range entry {
			row[key] = stringify(val)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stringify flattens a decoded JSON value to the string form the
// normalizer parses. Numbers keep their shortest exact representation so
// "39.2894" round-trips without float noise.
func stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func decodeCSVRows(body []byte) ([]domain.RawRow, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1 // tolerate ragged rows; missing columns read as empty

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode csv header: %w", err)
	}

	var rows []domain.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("decode csv row %d: %w", len(rows)+1, err)
		}
		row := make(domain.RawRow, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
}
