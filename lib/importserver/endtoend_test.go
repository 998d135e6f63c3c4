// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importserver

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/kontakte/lib/importclient"
	"github.com/bureau-foundation/kontakte/lib/importwizard"
	"github.com/bureau-foundation/kontakte/lib/testutil"
)

// TestWizardAgainstServer drives a whole import through the HTTP
// client: upload, polling, auto-mapping, one manual override and
// finalize.
func TestWizardAgainstServer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	server := httptest.NewServer(f.handler)
	t.Cleanup(server.Close)

	client, err := importclient.New(importclient.Config{
		BaseURL:       server.URL,
		CompressAbove: 64,
		Logger:        testutil.Logger(t),
	})
	if err != nil {
		t.Fatalf("importclient.New: %v", err)
	}
	catalog, err := client.Templates(t.Context())
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}

	wizard, err := importwizard.New(importwizard.Config{
		Transport:    client,
		Templates:    catalog,
		Logger:       testutil.Logger(t),
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  10 * time.Second,
	})
	if err != nil {
		t.Fatalf("importwizard.New: %v", err)
	}
	defer wizard.Close()

	wizard.Open(1)
	err = wizard.SubmitFiles(t.Context(), []importwizard.File{
		{Name: "kunden.csv", Content: []byte("vorname;NACHNAME;Wohnort\nAnna;Schmidt;Köln\nBernd;Meier;Bonn\n")},
		{Name: "notizen.pdf", Content: []byte("x")},
	})
	if err != nil {
		t.Fatalf("SubmitFiles: %v", err)
	}

	snapshot := wizard.Snapshot()
	if snapshot.Step != importwizard.StepMapping || snapshot.Page != 0 {
		t.Fatalf("after submit: step %v page %d", snapshot.Step, snapshot.Page)
	}
	if len(snapshot.FileErrors) != 1 || snapshot.FileErrors[0].Filename != "notizen.pdf" {
		t.Errorf("file errors = %+v", snapshot.FileErrors)
	}
	mapped := snapshot.MappedHeaders()
	if mapped["vorname"] != "Vorname" || mapped["NACHNAME"] != "Nachname" {
		t.Errorf("auto-mapping = %v", mapped)
	}

	if err := wizard.SetMapping("Ort", "Wohnort"); err != nil {
		t.Fatalf("SetMapping: %v", err)
	}
	for range snapshot.GroupCount {
		if err := wizard.NextPage(); err != nil {
			t.Fatalf("NextPage: %v", err)
		}
	}
	result, err := wizard.Finalize(t.Context())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if result.Imported != 2 || result.RedirectURL != DefaultRedirectURL {
		t.Errorf("result = %+v", result)
	}

	contacts, err := f.store.Contacts(t.Context(), 1)
	if err != nil {
		t.Fatalf("Contacts: %v", err)
	}
	var got []map[string]string
	for _, contact := range contacts {
		got = append(got, contact.Data)
	}
	want := []map[string]string{
		{"Vorname": "Anna", "Nachname": "Schmidt", "Ort": "Köln"},
		{"Vorname": "Bernd", "Nachname": "Meier", "Ort": "Bonn"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored contacts (-want +got):\n%s", diff)
	}
	if wizard.Snapshot().Step != importwizard.StepDone {
		t.Errorf("final step = %v", wizard.Snapshot().Step)
	}
}
