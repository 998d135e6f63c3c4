// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package importer turns uploaded contact files into rows keyed by
// column header.
//
// The format is chosen by file extension: .csv (comma, or semicolon
// when the header line says so), .txt (tab), .xlsx (active sheet, first
// row as header), .vcf (one row per card) and Outlook .msg or .oft (one
// row per contact item). vCard and Outlook properties are mapped to the
// German field names of the standard template. Other extensions fail
// with *UnsupportedTypeError.
//
// Delimited text that is not valid UTF-8 is decoded as Windows-1252,
// the encoding German spreadsheet exports use in practice.
//
// After parsing, rows without an "Anrede" get "Herr" or "Frau" when
// their "Vorname" is in a built-in table of common first names (see
// [AnredeFor]). Rows that carry a "Position" but no "Titel
// (akademisch)" get the academic titles found in the position, ordered
// and filtered per DIN 5008 (see [ExtractTitles]).
package importer
