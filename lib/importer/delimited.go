// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/bureau-foundation/kontakte/lib/importapi"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as UTF-8: the BOM is dropped, and input that
// is not valid UTF-8 is read as Windows-1252.
func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding Windows-1252: %w", err)
	}
	return decoded, nil
}

// sniffDelimiter picks ';' over ',' when the header line has more
// semicolons, as in spreadsheet exports with a German locale.
func sniffDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// parseDelimited reads a header row and then one record per line.
// Short lines leave the remaining columns empty; surplus fields and
// columns with a blank header are dropped.
func parseDelimited(data []byte, delimiter rune) (*Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	table := &Table{}
	columns := make([]string, len(header))
	for index, name := range header {
		columns[index] = strings.TrimSpace(name)
		if columns[index] != "" {
			table.addHeader(columns[index])
		}
	}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		if blank(fields) {
			continue
		}
		record := make(importapi.Row, len(table.Headers))
		for index, column := range columns {
			if column == "" {
				continue
			}
			if index < len(fields) {
				record[column] = strings.TrimSpace(fields[index])
			} else if _, set := record[column]; !set {
				record[column] = ""
			}
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}

func blank(fields []string) bool {
	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
