// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-vcard"

	"github.com/bureau-foundation/kontakte/lib/importapi"
)

// streetPattern splits "Hauptstraße 12a" into street and house number.
// The house number is the last digit-led run, so "Straße des 17. Juni 5"
// keeps its street name whole.
var streetPattern = regexp.MustCompile(`^(.+)\s+(\d[\p{L}\p{N}\s/.-]*)$`)

// vcardColumns fixes the header order of vCard tables.
var vcardColumns = []string{
	FieldVorname, FieldNachname, FieldName, FieldFirma, FieldPosition,
	FieldTelefonWork, FieldTelefonHome, FieldMobil, FieldEMail, FieldWebsite,
	FieldStrasse, FieldHausnummer, FieldOrt, FieldPostleitzahl, FieldLand,
}

// parseVCard reads every card in data. Properties a card does not carry
// are absent from its row.
func parseVCard(data []byte) (*Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	decoder := vcard.NewDecoder(bytes.NewReader(text))
	present := make(map[string]bool)
	table := &Table{}
	for {
		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding card %d: %w", len(table.Records)+1, err)
		}
		record := cardRecord(card)
		if len(record) == 0 {
			continue
		}
		for key := range record {
			present[key] = true
		}
		table.Records = append(table.Records, record)
	}
	for _, column := range vcardColumns {
		if present[column] {
			table.Headers = append(table.Headers, column)
		}
	}
	return table, nil
}

func cardRecord(card vcard.Card) importapi.Row {
	record := make(importapi.Row)
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			record[key] = value
		}
	}

	if name := card.Name(); name != nil {
		set(FieldVorname, name.GivenName)
		set(FieldNachname, name.FamilyName)
	}
	set(FieldName, card.PreferredValue(vcard.FieldFormattedName))
	if organization := card.PreferredValue(vcard.FieldOrganization); organization != "" {
		company, _, _ := strings.Cut(organization, ";")
		set(FieldFirma, company)
	}
	set(FieldPosition, card.PreferredValue(vcard.FieldTitle))

	for _, field := range card[vcard.FieldTelephone] {
		switch {
		case hasType(field, "work"):
			setFirst(record, FieldTelefonWork, field.Value)
		case hasType(field, "home"):
			setFirst(record, FieldTelefonHome, field.Value)
		case hasType(field, "cell"):
			setFirst(record, FieldMobil, field.Value)
		}
	}
	set(FieldEMail, card.PreferredValue(vcard.FieldEmail))
	set(FieldWebsite, card.PreferredValue(vcard.FieldURL))

	if address := card.Address(); address != nil {
		setStreet(set, address.StreetAddress)
		set(FieldOrt, address.Locality)
		set(FieldPostleitzahl, address.PostalCode)
		set(FieldLand, address.Country)
	}
	return record
}

// setStreet stores street as "Straße" and "Hausnummer" when it ends in a
// house number, and whole as "Straße" otherwise.
func setStreet(set func(key, value string), street string) {
	street = strings.TrimSpace(street)
	if match := streetPattern.FindStringSubmatch(street); match != nil {
		set(FieldStrasse, strings.TrimSuffix(strings.TrimSpace(match[1]), ","))
		set(FieldHausnummer, match[2])
		return
	}
	set(FieldStrasse, street)
}

// setFirst keeps the first number of each kind.
func setFirst(record importapi.Row, key, value string) {
	value = strings.TrimSpace(value)
	if _, exists := record[key]; !exists && value != "" {
		record[key] = value
	}
}

// hasType matches TYPE=work and TYPE=WORK,VOICE as well as the bare
// vCard 2.1 form TEL;WORK.
func hasType(field *vcard.Field, want string) bool {
	for name, values := range field.Params {
		if strings.EqualFold(name, want) {
			return true
		}
		if !strings.EqualFold(name, vcard.ParamType) {
			continue
		}
		for _, value := range values {
			for _, kind := range strings.Split(value, ",") {
				if strings.EqualFold(strings.TrimSpace(kind), want) {
					return true
				}
			}
		}
	}
	return false
}
