// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vorlage

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestStandardCatalog(t *testing.T) {
	catalog := Standard()

	person, ok := catalog.Default()
	if !ok {
		t.Fatal("standard catalog has no default template")
	}
	if person.Name != "Person" || !person.IsStandard {
		t.Errorf("default template = %q (standard=%v), want Person", person.Name, person.IsStandard)
	}

	link, ok := person.Property("Arbeitgeber")
	if !ok {
		t.Fatal("Person template lacks Arbeitgeber")
	}
	target, ok, err := link.LinkTarget()
	if err != nil || !ok {
		t.Fatalf("LinkTarget: ok=%v err=%v", ok, err)
	}
	if _, found := catalog.Find(target); !found {
		t.Errorf("link target %d not in catalog", target)
	}
}

func TestPropertiesFlattenInTemplateOrder(t *testing.T) {
	template := Template{
		ID:   7,
		Name: "Kurz",
		Groups: []Group{
			{Name: "A", Properties: []Property{{Name: "Vorname", DataType: Text}, {Name: "Nachname", DataType: Text}}},
			{Name: "B", Properties: []Property{{Name: "Ort", DataType: Text}}},
		},
	}

	var names []string
	for _, property := range template.Properties() {
		names = append(names, property.Name)
	}
	want := []string{"Vorname", "Nachname", "Ort"}
	if !slices.Equal(names, want) {
		t.Errorf("Properties() = %v, want %v", names, want)
	}
	if template.GroupCount() != 2 {
		t.Errorf("GroupCount() = %d, want 2", template.GroupCount())
	}
	if !template.PropertyNames()["Ort"] || template.PropertyNames()["Land"] {
		t.Errorf("PropertyNames() = %v", template.PropertyNames())
	}
}

func TestChoices(t *testing.T) {
	property := Property{Name: "Anrede", DataType: Auswahl, Options: " Herr, Frau ,, Divers "}
	if got, want := property.Choices(), []string{"Herr", "Frau", "Divers"}; !slices.Equal(got, want) {
		t.Errorf("Choices() = %v, want %v", got, want)
	}
	if got := (Property{Name: "Vorname", DataType: Text, Options: "a,b"}).Choices(); got != nil {
		t.Errorf("Choices() on text property = %v, want nil", got)
	}
}

func TestLinkTargetMalformed(t *testing.T) {
	for _, options := range []string{"2", "vorlage_id:zwei"} {
		property := Property{Name: "Arbeitgeber", DataType: Verknuepfung, Options: options}
		if _, _, err := property.LinkTarget(); err == nil {
			t.Errorf("LinkTarget(%q) succeeded, want error", options)
		}
	}
}

func TestValidateRejectsDuplicatePropertyAcrossGroups(t *testing.T) {
	template := Template{
		ID:   1,
		Name: "Doppelt",
		Groups: []Group{
			{Name: "Eins", Properties: []Property{{Name: "Ort", DataType: Text}}},
			{Name: "Zwei", Properties: []Property{{Name: "Ort", DataType: Text}}},
		},
	}
	err := template.Validate()
	if err == nil || !strings.Contains(err.Error(), `"Ort" appears in groups`) {
		t.Fatalf("Validate() = %v, want duplicate property error", err)
	}
}

func TestParseCatalogJSONC(t *testing.T) {
	data := []byte(`{
		// comment
		"vorlagen": [
			{"id": 3, "name": "Verein", "gruppen": [
				{"name": "Stamm", "eigenschaften": [
					{"name": "Name", "datentyp": "Text"},
					{"name": "Dach", "datentyp": "Verknüpfung", "optionen": "vorlage_id:3"},
				]},
			]},
		],
	}`)
	catalog, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	template, ok := catalog.Default()
	if !ok || template.ID != 3 {
		t.Fatalf("Default() = %+v, %v", template, ok)
	}
}

func TestParseCatalogUnknownLinkTarget(t *testing.T) {
	data := []byte(`{"vorlagen": [{"id": 1, "name": "A", "gruppen": [
		{"name": "G", "eigenschaften": [{"name": "L", "datentyp": "Verknüpfung", "optionen": "vorlage_id:9"}]}
	]}]}`)
	_, err := ParseCatalog(data)
	if err == nil || !strings.Contains(err.Error(), "unknown template 9") {
		t.Fatalf("ParseCatalog() = %v, want unknown template error", err)
	}
}

func TestLoadCatalogReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonc")
	if err := os.WriteFile(path, []byte(`{"vorlagen": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadCatalog(path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("LoadCatalog() = %v, want error naming %s", err, path)
	}
}
