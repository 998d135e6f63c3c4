// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/kontakte/lib/cli"
	"github.com/bureau-foundation/kontakte/lib/config"
	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/importclient"
	"github.com/bureau-foundation/kontakte/lib/netutil"
	"github.com/bureau-foundation/kontakte/lib/testutil"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

func TestParseMappings(t *testing.T) {
	t.Parallel()
	got, err := parseMappings([]string{"Ort=Stadt", " Telefon (privat) = Tel ", "Ort=Wohnort", "Firma="})
	if err != nil {
		t.Fatalf("parseMappings: %v", err)
	}
	want := map[string]string{"Ort": "Wohnort", "Telefon (privat)": "Tel", "Firma": ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mappings (-want +got):\n%s", diff)
	}

	// A column freed by a later value for the same property may be
	// reused.
	if _, err := parseMappings([]string{"Ort=Stadt", "Ort=Wohnort", "Land=Stadt"}); err != nil {
		t.Errorf("reassigning a freed column: %v", err)
	}

	for _, bad := range [][]string{{"Ort"}, {"=Stadt"}, {"Ort=Stadt", "Land=Stadt"}} {
		_, err := parseMappings(bad)
		var toolErr *cli.ToolError
		if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryValidation {
			t.Errorf("parseMappings(%q) = %v, want validation error", bad, err)
		}
	}
}

func TestResolveTemplate(t *testing.T) {
	t.Parallel()
	catalog := vorlage.Standard()
	standard, _ := catalog.Default()
	second := catalog.Templates[len(catalog.Templates)-1]

	for _, test := range []struct {
		selector string
		wantID   int64
	}{
		{"", standard.ID},
		{"  ", standard.ID},
		{second.Name, second.ID},
		{strings.ToUpper(second.Name), second.ID},
		{" " + strconv.FormatInt(second.ID, 10), second.ID},
	} {
		template, err := resolveTemplate(catalog, test.selector)
		if err != nil {
			t.Errorf("resolveTemplate(%q): %v", test.selector, err)
			continue
		}
		if template.ID != test.wantID {
			t.Errorf("resolveTemplate(%q) = %d, want %d", test.selector, template.ID, test.wantID)
		}
	}

	_, err := resolveTemplate(catalog, "Gibt es nicht")
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryNotFound {
		t.Errorf("unknown template: err = %v, want not_found", err)
	}
}

// importServer answers the three import calls with fixed data and
// records the finalize request.
type importServer struct {
	mu        sync.Mutex
	finalized *importapi.FinalizeRequest
	data      importapi.ImportData
	status    int
}

func (server *importServer) start(t *testing.T) *importclient.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /import/upload", func(w http.ResponseWriter, r *http.Request) {
		netutil.WriteJSON(w, http.StatusAccepted, importapi.UploadResponse{TaskID: "t1"})
	})
	mux.HandleFunc("GET /import/status/{task}", func(w http.ResponseWriter, r *http.Request) {
		netutil.WriteJSON(w, http.StatusOK, importapi.StatusResponse{Status: importapi.StatusComplete, Data: &server.data})
	})
	mux.HandleFunc("POST /import/finalize", func(w http.ResponseWriter, r *http.Request) {
		var request importapi.FinalizeRequest
		if err := netutil.DecodeRequest(r, 1<<20, &request); err != nil {
			t.Errorf("DecodeRequest: %v", err)
		}
		server.mu.Lock()
		server.finalized = &request
		status := server.status
		server.mu.Unlock()
		if status != 0 {
			netutil.WriteJSON(w, status, importapi.FinalizeResponse{Error: "Vorlage nicht gefunden."})
			return
		}
		netutil.WriteJSON(w, http.StatusOK, importapi.FinalizeResponse{Success: true, RedirectURL: "/kontakte", Imported: len(request.OriginalData)})
	})
	httpServer := httptest.NewServer(mux)
	t.Cleanup(httpServer.Close)

	client, err := importclient.New(importclient.Config{BaseURL: httpServer.URL, Logger: testutil.Logger(t)})
	if err != nil {
		t.Fatalf("importclient.New: %v", err)
	}
	return client
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newBatch(t *testing.T, client *importclient.Client, stdout *bytes.Buffer, paths ...string) batchConfig {
	catalog := vorlage.Standard()
	template, _ := catalog.Default()
	return batchConfig{
		transport: client,
		catalog:   catalog,
		client:    config.ClientConfig{PollInterval: time.Millisecond, PollTimeout: 5 * time.Second},
		logger:    testutil.Logger(t),
		stdout:    stdout,
		template:  template,
		paths:     paths,
	}
}

func TestRunBatch(t *testing.T) {
	t.Parallel()
	server := &importServer{data: importapi.ImportData{
		Headers:      []string{"Vorname", "Name", "Stadt"},
		OriginalData: []importapi.Row{{"Vorname": "Anna", "Name": "Schmidt", "Stadt": "Köln"}},
	}}
	client := server.start(t)
	path := writeFile(t, "kunden.csv", "Vorname,Name,Stadt\nAnna,Schmidt,Köln\n")

	var stdout bytes.Buffer
	batch := newBatch(t, client, &stdout, path)
	batch.overrides = map[string]string{"Nachname": "Name", "Ort": "Stadt"}
	if err := runBatch(t.Context(), batch); err != nil {
		t.Fatalf("runBatch: %v", err)
	}

	server.mu.Lock()
	finalized := server.finalized
	server.mu.Unlock()
	if finalized == nil {
		t.Fatal("finalize was not called")
	}
	want := map[string]string{"Vorname": "Vorname", "Name": "Nachname", "Stadt": "Ort"}
	if diff := cmp.Diff(want, finalized.Mappings); diff != "" {
		t.Errorf("finalize mappings (-want +got):\n%s", diff)
	}
	if !strings.Contains(stdout.String(), "1 Kontakte importiert") {
		t.Errorf("stdout = %q, want import summary", stdout.String())
	}
}

func TestRunBatchFileErrorsExitCode(t *testing.T) {
	t.Parallel()
	server := &importServer{data: importapi.ImportData{
		Headers:      []string{"Vorname"},
		OriginalData: []importapi.Row{{"Vorname": "Anna"}},
		Errors:       []importapi.FileError{{Filename: "x.pdf", Error: "Dateityp .pdf wird für den Import noch nicht unterstützt."}},
	}}
	client := server.start(t)

	var stdout bytes.Buffer
	err := runBatch(t.Context(), newBatch(t, client, &stdout, writeFile(t, "a.csv", "Vorname\nAnna\n")))
	var exit *cli.ExitError
	if !errors.As(err, &exit) || exit.Code != exitFileErrors {
		t.Fatalf("runBatch = %v, want exit code %d", err, exitFileErrors)
	}
	if !strings.Contains(stdout.String(), "nicht gelesen: x.pdf") {
		t.Errorf("stdout = %q, want file error line", stdout.String())
	}
}

func TestRunBatchFailures(t *testing.T) {
	t.Parallel()
	data := importapi.ImportData{Headers: []string{"Vorname"}, OriginalData: []importapi.Row{{"Vorname": "Anna"}}}

	t.Run("unreadable file", func(t *testing.T) {
		t.Parallel()
		client := (&importServer{data: data}).start(t)
		err := runBatch(t.Context(), newBatch(t, client, &bytes.Buffer{}, filepath.Join(t.TempDir(), "fehlt.csv")))
		assertCategory(t, err, cli.CategoryValidation)
	})
	t.Run("unknown header", func(t *testing.T) {
		t.Parallel()
		client := (&importServer{data: data}).start(t)
		batch := newBatch(t, client, &bytes.Buffer{}, writeFile(t, "a.csv", "Vorname\nAnna\n"))
		batch.overrides = map[string]string{"Ort": "Wohnort"}
		assertCategory(t, runBatch(t.Context(), batch), cli.CategoryValidation)
	})
	t.Run("finalize rejected", func(t *testing.T) {
		t.Parallel()
		client := (&importServer{data: data, status: http.StatusNotFound}).start(t)
		err := runBatch(t.Context(), newBatch(t, client, &bytes.Buffer{}, writeFile(t, "a.csv", "Vorname\nAnna\n")))
		assertCategory(t, err, cli.CategoryValidation)
		if !strings.Contains(err.Error(), "Vorlage nicht gefunden.") {
			t.Errorf("err = %v, want server message", err)
		}
	})
	t.Run("finalize server error", func(t *testing.T) {
		t.Parallel()
		client := (&importServer{data: data, status: http.StatusInternalServerError}).start(t)
		err := runBatch(t.Context(), newBatch(t, client, &bytes.Buffer{}, writeFile(t, "a.csv", "Vorname\nAnna\n")))
		assertCategory(t, err, cli.CategoryTransient)
	})
}

func assertCategory(t *testing.T, err error, want cli.ErrorCategory) {
	t.Helper()
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("err = %v, want *cli.ToolError", err)
	}
	if toolErr.Category != want {
		t.Errorf("category = %q, want %q (err: %v)", toolErr.Category, want, err)
	}
}
