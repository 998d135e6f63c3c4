// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vorlage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

//go:embed standard.jsonc
var standardCatalog []byte

// Catalog is an ordered list of templates.
type Catalog struct {
	Templates []Template `json:"vorlagen"`
}

// Standard returns the built-in catalog. It panics if the embedded file
// does not parse, which would be a build defect.
func Standard() *Catalog {
	catalog, err := ParseCatalog(standardCatalog)
	if err != nil {
		panic(fmt.Sprintf("vorlage: embedded catalog: %v", err))
	}
	return catalog
}

// ParseCatalog strips JSONC comments and trailing commas from data,
// decodes it, and validates every template plus catalog-level rules:
// unique ids, unique names, and link targets that exist.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(jsonc.ToJSON(data), &catalog); err != nil {
		return nil, fmt.Errorf("parsing template catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// LoadCatalog reads and parses a JSONC catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// Validate checks each template and the cross-template rules.
func (catalog *Catalog) Validate() error {
	var errs []error
	ids := make(map[int64]bool)
	names := make(map[string]bool)
	for index := range catalog.Templates {
		template := &catalog.Templates[index]
		if template.ID <= 0 {
			errs = append(errs, fmt.Errorf("template %q: id must be positive", template.Name))
		}
		if ids[template.ID] {
			errs = append(errs, fmt.Errorf("template id %d is used more than once", template.ID))
		}
		if names[template.Name] {
			errs = append(errs, fmt.Errorf("template name %q is used more than once", template.Name))
		}
		ids[template.ID] = true
		names[template.Name] = true
		if err := template.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, template := range catalog.Templates {
		for _, property := range template.Properties() {
			target, ok, err := property.LinkTarget()
			if err == nil && ok && !ids[target] {
				errs = append(errs, fmt.Errorf("template %q: property %q links to unknown template %d", template.Name, property.Name, target))
			}
		}
	}
	return errors.Join(errs...)
}

// Find returns the template with the given id.
func (catalog *Catalog) Find(id int64) (*Template, bool) {
	for index := range catalog.Templates {
		if catalog.Templates[index].ID == id {
			return &catalog.Templates[index], true
		}
	}
	return nil, false
}

// Default returns the first template flagged is_standard, else the
// first template. ok is false for an empty catalog.
func (catalog *Catalog) Default() (*Template, bool) {
	for index := range catalog.Templates {
		if catalog.Templates[index].IsStandard {
			return &catalog.Templates[index], true
		}
	}
	if len(catalog.Templates) == 0 {
		return nil, false
	}
	return &catalog.Templates[0], true
}
