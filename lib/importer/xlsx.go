// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bureau-foundation/kontakte/lib/importapi"
)

// parseXLSX reads the active sheet. Row one is the header; rows without
// any non-empty cell are skipped. Cell values are the formatted text
// Excel would display.
func parseXLSX(data []byte) (*Table, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer workbook.Close()

	sheet := workbook.GetSheetName(workbook.GetActiveSheetIndex())
	if sheet == "" {
		sheets := workbook.GetSheetList()
		if len(sheets) == 0 {
			return &Table{}, nil
		}
		sheet = sheets[0]
	}
	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	table := &Table{}
	columns := make([]string, len(rows[0]))
	for index, name := range rows[0] {
		columns[index] = strings.TrimSpace(name)
		if columns[index] != "" {
			table.addHeader(columns[index])
		}
	}
	for _, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		record := make(importapi.Row, len(table.Headers))
		for index, column := range columns {
			if column == "" {
				continue
			}
			value := ""
			if index < len(cells) {
				value = strings.TrimSpace(cells[index])
			}
			if _, set := record[column]; !set || value != "" {
				record[column] = value
			}
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}
