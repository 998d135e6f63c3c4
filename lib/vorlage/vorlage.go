// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vorlage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DataType is the kind of value a property holds.
type DataType string

const (
	Text         DataType = "Text"
	Mehrzeilig   DataType = "Mehrzeilig"
	Zahl         DataType = "Zahl"
	Datum        DataType = "Datum"
	EMail        DataType = "E-Mail"
	Telefon      DataType = "Telefon"
	URL          DataType = "URL"
	Auswahl      DataType = "Auswahl"
	Verknuepfung DataType = "Verknüpfung"
)

// IsKnown reports whether dataType is one of the declared constants.
func (dataType DataType) IsKnown() bool {
	switch dataType {
	case Text, Mehrzeilig, Zahl, Datum, EMail, Telefon, URL, Auswahl, Verknuepfung:
		return true
	}
	return false
}

// linkPrefix introduces the target template id in a link property's
// options.
const linkPrefix = "vorlage_id:"

// Template is a named, ordered collection of property groups.
type Template struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	IsStandard bool    `json:"is_standard"`
	Groups     []Group `json:"gruppen"`
}

// Group is a named, ordered list of properties. In the import wizard
// each group is one mapping page.
type Group struct {
	Name       string     `json:"name"`
	Properties []Property `json:"eigenschaften"`
}

// Property is a single field of a contact.
type Property struct {
	Name     string   `json:"name"`
	DataType DataType `json:"datentyp"`
	// Options is the comma-joined value list of an Auswahl property or
	// "vorlage_id:<id>" for a Verknüpfung property.
	Options          string `json:"optionen,omitempty"`
	AllowMultiselect bool   `json:"allow_multiselect,omitempty"`
}

// Choices returns the selectable values of an Auswahl property, with
// whitespace trimmed and empty entries dropped.
func (property Property) Choices() []string {
	if property.DataType != Auswahl {
		return nil
	}
	var choices []string
	for _, choice := range strings.Split(property.Options, ",") {
		if choice = strings.TrimSpace(choice); choice != "" {
			choices = append(choices, choice)
		}
	}
	return choices
}

// LinkTarget returns the id of the template a Verknüpfung property
// points to. ok is false for other data types and for empty options.
func (property Property) LinkTarget() (id int64, ok bool, err error) {
	if property.DataType != Verknuepfung || property.Options == "" {
		return 0, false, nil
	}
	raw, found := strings.CutPrefix(property.Options, linkPrefix)
	if !found {
		return 0, false, fmt.Errorf("property %q: link options %q lack %q prefix", property.Name, property.Options, linkPrefix)
	}
	id, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("property %q: link target %q: %w", property.Name, raw, err)
	}
	return id, true, nil
}

// Properties returns every property in group order, then in order
// within each group.
func (template *Template) Properties() []Property {
	var properties []Property
	for _, group := range template.Groups {
		properties = append(properties, group.Properties...)
	}
	return properties
}

// PropertyNames returns the set of property names.
func (template *Template) PropertyNames() map[string]bool {
	names := make(map[string]bool)
	for _, group := range template.Groups {
		for _, property := range group.Properties {
			names[property.Name] = true
		}
	}
	return names
}

// Property looks up a property by name.
func (template *Template) Property(name string) (Property, bool) {
	for _, group := range template.Groups {
		for _, property := range group.Properties {
			if property.Name == name {
				return property, true
			}
		}
	}
	return Property{}, false
}

// GroupCount returns the number of groups.
func (template *Template) GroupCount() int { return len(template.Groups) }

// Validate checks the structural rules a template must satisfy before it
// can drive an import: a name, non-empty property names unique across
// groups, known data types and well-formed link options.
func (template *Template) Validate() error {
	var errs []error
	if strings.TrimSpace(template.Name) == "" {
		errs = append(errs, fmt.Errorf("template %d: name is required", template.ID))
	}
	seen := make(map[string]string)
	for _, group := range template.Groups {
		if strings.TrimSpace(group.Name) == "" {
			errs = append(errs, fmt.Errorf("template %q: group name is required", template.Name))
		}
		for _, property := range group.Properties {
			if strings.TrimSpace(property.Name) == "" {
				errs = append(errs, fmt.Errorf("template %q, group %q: property name is required", template.Name, group.Name))
				continue
			}
			if previous, duplicate := seen[property.Name]; duplicate {
				errs = append(errs, fmt.Errorf("template %q: property %q appears in groups %q and %q", template.Name, property.Name, previous, group.Name))
			}
			seen[property.Name] = group.Name
			if !property.DataType.IsKnown() {
				errs = append(errs, fmt.Errorf("template %q: property %q has unknown data type %q", template.Name, property.Name, property.DataType))
			}
			if _, _, err := property.LinkTarget(); err != nil {
				errs = append(errs, fmt.Errorf("template %q: %w", template.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}
