// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importer

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/bureau-foundation/kontakte/lib/importapi"
)

// Outlook keeps each property of an item in a stream named
// "__substg1.0_" followed by the property tag and type as eight hex
// digits, e.g. "__substg1.0_3A06001F" for the given name.
const msgPropertyPrefix = "__substg1.0_"

// Property types carrying text.
const (
	msgTypeString8 = 0x001E
	msgTypeUnicode = 0x001F
)

// Contact property tags.
const (
	tagGivenName         = 0x3A06
	tagBusinessPhone     = 0x3A08
	tagHomePhone         = 0x3A09
	tagSurname           = 0x3A11
	tagPostalAddress     = 0x3A15
	tagCompanyName       = 0x3A16
	tagTitle             = 0x3A17
	tagMobilePhone       = 0x3A1C
	tagBusinessFax       = 0x3A24
	tagCountry           = 0x3A26
	tagLocality          = 0x3A27
	tagStreetAddress     = 0x3A29
	tagPostalCode        = 0x3A2A
	tagDisplayNamePrefix = 0x3A45
	tagBusinessHomePage  = 0x3A51
	tagHomeLocality      = 0x3A59
	tagHomeCountry       = 0x3A5A
	tagHomePostalCode    = 0x3A5B
	tagHomeStreet        = 0x3A5D

	// Named properties, among them the e-mail addresses, are assigned
	// tags from here up per file.
	tagFirstNamed = 0x8000
)

var msgFields = map[uint16]string{
	tagGivenName:        FieldVorname,
	tagSurname:          FieldNachname,
	tagCompanyName:      FieldFirma,
	tagTitle:            FieldPosition,
	tagBusinessPhone:    FieldTelefonWork,
	tagHomePhone:        FieldTelefonHome,
	tagMobilePhone:      FieldMobil,
	tagBusinessFax:      FieldFax,
	tagBusinessHomePage: FieldWebsite,
}

// msgAddresses lists street, postal code, locality and country tags,
// business address first.
var msgAddresses = [][4]uint16{
	{tagStreetAddress, tagPostalCode, tagLocality, tagCountry},
	{tagHomeStreet, tagHomePostalCode, tagHomeLocality, tagHomeCountry},
}

// msgColumns fixes the header order of Outlook tables.
var msgColumns = []string{
	FieldAnrede, FieldVorname, FieldNachname, FieldFirma, FieldPosition,
	FieldTelefonWork, FieldTelefonHome, FieldMobil, FieldFax, FieldEMail, FieldWebsite,
	FieldStrasse, FieldHausnummer, FieldOrt, FieldPostleitzahl, FieldLand,
}

// postalLinePattern matches the "12345 Ort" line of a formatted address.
var postalLinePattern = regexp.MustCompile(`^(\d{4,5})\s+(.+)$`)

// parseMSG reads an Outlook contact (.msg, or an .oft template) into a
// table of at most one row. An item without contact properties, such as
// a mail, yields an empty table.
func parseMSG(data []byte) (*Table, error) {
	properties, err := readMSGProperties(data)
	if err != nil {
		return nil, err
	}

	record := make(importapi.Row)
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			record[key] = value
		}
	}
	for tag, field := range msgFields {
		set(field, properties[tag])
	}
	set(FieldEMail, msgEmail(properties))
	if prefix := properties[tagDisplayNamePrefix]; strings.EqualFold(prefix, "Herr") || strings.EqualFold(prefix, "Frau") {
		set(FieldAnrede, strings.ToUpper(prefix[:1])+strings.ToLower(prefix[1:]))
	}
	setMSGAddress(set, properties)

	table := &Table{}
	if len(record) == 0 {
		return table, nil
	}
	table.Records = []importapi.Row{record}
	for _, column := range msgColumns {
		if _, ok := record[column]; ok {
			table.Headers = append(table.Headers, column)
		}
	}
	return table, nil
}

// readMSGProperties returns the text properties of the top-level item,
// keyed by tag. Streams below the root, which belong to attachments and
// recipients, are skipped.
func readMSGProperties(data []byte) (map[uint16]string, error) {
	document, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading Outlook file: %w", err)
	}
	properties := make(map[uint16]string)
	for entry, err := document.Next(); err == nil; entry, err = document.Next() {
		if len(entry.Path) != 0 {
			continue
		}
		tag, kind, ok := msgProperty(entry.Name)
		if !ok || (kind != msgTypeUnicode && kind != msgTypeString8) {
			continue
		}
		raw := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, raw); err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name, err)
		}
		value, err := decodeMSGString(raw, kind)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", entry.Name, err)
		}
		if value != "" {
			properties[tag] = value
		}
	}
	return properties, nil
}

// msgProperty splits a property stream name into tag and type.
func msgProperty(name string) (tag, kind uint16, ok bool) {
	code, found := strings.CutPrefix(name, msgPropertyPrefix)
	if !found || len(code) != 8 {
		return 0, 0, false
	}
	value, err := strconv.ParseUint(code, 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint16(value >> 16), uint16(value), true
}

func decodeMSGString(raw []byte, kind uint16) (string, error) {
	var decoded []byte
	var err error
	if kind == msgTypeUnicode {
		decoded, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	} else {
		decoded, err = charmap.Windows1252.NewDecoder().Bytes(raw)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimRight(string(decoded), "\x00")), nil
}

// msgEmail returns the first named property, in tag order, that holds a
// bare address. Display forms like "Anna (anna@example.de)" are skipped.
func msgEmail(properties map[uint16]string) string {
	for _, tag := range slices.Sorted(maps.Keys(properties)) {
		value := properties[tag]
		if tag >= tagFirstNamed && strings.Count(value, "@") == 1 && !strings.ContainsAny(value, " <>()") {
			return value
		}
	}
	return ""
}

// setMSGAddress takes the first of the business and home addresses that
// has any part set. Without either it falls back to the formatted postal
// address: street on the first line, "PLZ Ort" on the second.
func setMSGAddress(set func(key, value string), properties map[uint16]string) {
	for _, tags := range msgAddresses {
		street, postalCode := properties[tags[0]], properties[tags[1]]
		locality, country := properties[tags[2]], properties[tags[3]]
		if street == "" && postalCode == "" && locality == "" {
			continue
		}
		street, _, _ = strings.Cut(strings.ReplaceAll(street, "\r\n", "\n"), "\n")
		setStreet(set, street)
		set(FieldPostleitzahl, postalCode)
		set(FieldOrt, locality)
		set(FieldLand, country)
		return
	}

	lines := strings.Split(strings.ReplaceAll(properties[tagPostalAddress], "\r\n", "\n"), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		setStreet(set, lines[0])
	}
	if len(lines) > 1 {
		if match := postalLinePattern.FindStringSubmatch(strings.TrimSpace(lines[1])); match != nil {
			set(FieldPostleitzahl, match[1])
			set(FieldOrt, match[2])
		}
	}
}
