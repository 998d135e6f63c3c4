// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importwizard

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

// AutoMap proposes the initial mapping: each property gets the first
// header whose normalized text equals the property's normalized name,
// or "" if none does. Every property appears in the result. A header
// is proposed for at most one property, the first in template order.
func AutoMap(properties []vorlage.Property, headers []string) map[string]string {
	folder := cases.Fold()
	normalized := make([]string, len(headers))
	for index, header := range headers {
		normalized[index] = normalizeName(folder, header)
	}

	mappings := make(map[string]string, len(properties))
	taken := make(map[string]bool)
	for _, property := range properties {
		mappings[property.Name] = ""
		name := normalizeName(folder, property.Name)
		for index, header := range headers {
			if normalized[index] == name && !taken[header] {
				mappings[property.Name] = header
				taken[header] = true
				break
			}
		}
	}
	return mappings
}

// normalizeName trims surrounding whitespace, composes to NFC and
// applies Unicode case folding, so "STRASSE" and "Straße" compare
// equal.
func normalizeName(folder cases.Caser, name string) string {
	return folder.String(norm.NFC.String(strings.TrimSpace(name)))
}
