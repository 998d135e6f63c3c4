// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importer

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bureau-foundation/kontakte/lib/importapi"
)

// Field names produced by the vCard and Outlook parsers and used for
// enrichment.
const (
	FieldAnrede       = "Anrede"
	FieldVorname      = "Vorname"
	FieldNachname     = "Nachname"
	FieldName         = "Name"
	FieldFirma        = "Firma"
	FieldPosition     = "Position"
	FieldTitel        = "Titel (akademisch)"
	FieldTelefonWork  = "Telefon (geschäftlich)"
	FieldTelefonHome  = "Telefon (privat)"
	FieldMobil        = "Mobilnummer"
	FieldFax          = "Faxnummer"
	FieldEMail        = "E-Mail"
	FieldWebsite      = "Website"
	FieldStrasse      = "Straße"
	FieldHausnummer   = "Hausnummer"
	FieldOrt          = "Ort"
	FieldPostleitzahl = "Postleitzahl"
	FieldLand         = "Land"
)

// Table is the parsed content of one file.
type Table struct {
	// Headers lists every key that occurs in Records, in column order
	// followed by keys added during enrichment.
	Headers []string
	Records []importapi.Row
}

// UnsupportedTypeError reports a file extension without a parser.
type UnsupportedTypeError struct {
	Extension string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("Dateityp %s wird für den Import noch nicht unterstützt.", e.Extension)
}

// Supported reports whether filename has an extension Parse handles.
func Supported(filename string) bool {
	switch extension(filename) {
	case ".csv", ".txt", ".xlsx", ".vcf", ".msg", ".oft":
		return true
	}
	return false
}

func extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Parse dispatches on the extension of filename and enriches the
// result.
func Parse(filename string, data []byte) (*Table, error) {
	var table *Table
	var err error
	switch ext := extension(filename); ext {
	case ".csv":
		table, err = parseDelimited(data, sniffDelimiter(data))
	case ".txt":
		table, err = parseDelimited(data, '\t')
	case ".xlsx":
		table, err = parseXLSX(data)
	case ".vcf":
		table, err = parseVCard(data)
	case ".msg", ".oft":
		table, err = parseMSG(data)
	default:
		return nil, &UnsupportedTypeError{Extension: ext}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	table.enrich()
	return table, nil
}

// enrich fills "Anrede" from "Vorname" and "Titel (akademisch)" from
// "Position" where they are missing.
func (table *Table) enrich() {
	for _, record := range table.Records {
		if strings.TrimSpace(record[FieldAnrede]) == "" {
			if anrede := AnredeFor(record[FieldVorname]); anrede != "" {
				record[FieldAnrede] = anrede
				table.addHeader(FieldAnrede)
			}
		}
		if strings.TrimSpace(record[FieldTitel]) != "" || strings.TrimSpace(record[FieldPosition]) == "" {
			continue
		}
		if titles := ExtractTitles(record[FieldPosition]); len(titles) > 0 {
			record[FieldTitel] = strings.Join(titles, ", ")
			table.addHeader(FieldTitel)
		}
	}
}

func (table *Table) addHeader(header string) {
	if !slices.Contains(table.Headers, header) {
		table.Headers = append(table.Headers, header)
	}
}
