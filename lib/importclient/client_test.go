// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importclient

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/importwizard"
	"github.com/bureau-foundation/kontakte/lib/netutil"
	"github.com/bureau-foundation/kontakte/lib/version"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

func newTestClient(t *testing.T, mux *http.ServeMux, mutate func(*Config)) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	config := Config{BaseURL: server.URL + "/"}
	if mutate != nil {
		mutate(&config)
	}
	client, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestUpload(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /import/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		var names []string
		for _, header := range r.MultipartForm.File[importapi.UploadField] {
			file, _ := header.Open()
			content, _ := io.ReadAll(file)
			file.Close()
			names = append(names, header.Filename+":"+string(content))
		}
		if want := []string{"a.csv:Vorname\nAnna\n", "b.vcf:BEGIN:VCARD"}; !slices.Equal(names, want) {
			t.Errorf("uploaded parts = %q, want %q", names, want)
		}
		netutil.WriteJSON(w, http.StatusAccepted, importapi.UploadResponse{TaskID: "4f2a"})
	})
	client := newTestClient(t, mux, nil)

	var mu sync.Mutex
	var reports [][2]int64
	taskID, err := client.Upload(t.Context(), []importwizard.File{
		{Name: "a.csv", Content: []byte("Vorname\nAnna\n")},
		{Name: "b.vcf", Content: []byte("BEGIN:VCARD")},
	}, func(loaded, total int64) {
		mu.Lock()
		reports = append(reports, [2]int64{loaded, total})
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if taskID != "4f2a" {
		t.Errorf("taskID = %q, want 4f2a", taskID)
	}
	if len(reports) < 2 {
		t.Fatalf("progress reports = %v, want at least start and end", reports)
	}
	first, last := reports[0], reports[len(reports)-1]
	if first[0] != 0 || last[0] != last[1] || last[1] <= 0 {
		t.Errorf("progress went from %v to %v, want 0 to total", first, last)
	}
}

func TestUploadRejected(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr importapi.ServerError
	}{
		{"json error", http.StatusBadRequest, `{"error": "Keine Dateien ausgewählt."}`, importapi.ServerError{StatusCode: 400, Message: "Keine Dateien ausgewählt."}},
		{"html error", http.StatusBadGateway, `<html>bad gateway</html>`, importapi.ServerError{StatusCode: 502}},
		{"accepted without task", http.StatusAccepted, `{}`, importapi.ServerError{StatusCode: 202}},
		{"ok instead of accepted", http.StatusOK, `{"task_id": "x"}`, importapi.ServerError{StatusCode: 200}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			mux := http.NewServeMux()
			mux.HandleFunc("POST /import/upload", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				io.WriteString(w, test.body)
			})
			client := newTestClient(t, mux, nil)

			_, err := client.Upload(t.Context(), []importwizard.File{{Name: "x.csv"}}, nil)
			var serverErr *importapi.ServerError
			if !errors.As(err, &serverErr) {
				t.Fatalf("Upload = %v, want *ServerError", err)
			}
			if *serverErr != test.wantErr {
				t.Errorf("ServerError = %+v, want %+v", *serverErr, test.wantErr)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /import/status/{task}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("task") {
		case "running":
			netutil.WriteJSON(w, http.StatusOK, map[string]any{"status": "processing", "progress": 1, "total": 2, "result": nil})
		case "done":
			io.WriteString(w, `{"status":"complete","data":{"headers":["Vorname"],"original_data":[{"Vorname":"Anna"}],"errors":[{"filename":"x.pdf","error":"Dateityp .pdf wird für den Import noch nicht unterstützt."}]}}`)
		default:
			netutil.WriteJSON(w, http.StatusNotFound, importapi.ErrorResponse{Error: "Task nicht gefunden"})
		}
	})
	client := newTestClient(t, mux, nil)

	running, err := client.Status(t.Context(), "running")
	if err != nil {
		t.Fatalf("Status(running): %v", err)
	}
	if running.Status != importapi.StatusProcessing || running.Percent() != 50 {
		t.Errorf("Status(running) = %+v", running)
	}

	done, err := client.Status(t.Context(), "done")
	if err != nil {
		t.Fatalf("Status(done): %v", err)
	}
	want := &importapi.ImportData{
		Headers:      []string{"Vorname"},
		OriginalData: []importapi.Row{{"Vorname": "Anna"}},
		Errors:       []importapi.FileError{{Filename: "x.pdf", Error: "Dateityp .pdf wird für den Import noch nicht unterstützt."}},
	}
	if diff := cmp.Diff(want, done.Data); diff != "" {
		t.Errorf("complete data (-want +got):\n%s", diff)
	}

	_, err = client.Status(t.Context(), "gone")
	var serverErr *importapi.ServerError
	if !errors.As(err, &serverErr) || serverErr.StatusCode != 404 || serverErr.Message != "Task nicht gefunden" {
		t.Errorf("Status(gone) = %v, want 404 ServerError", err)
	}
}

func TestFinalizeCompression(t *testing.T) {
	t.Parallel()
	request := importapi.FinalizeRequest{
		TemplateID:   1,
		Mappings:     map[string]string{"First Name": "Vorname"},
		OriginalData: []importapi.Row{{"First Name": "Anna"}, {"First Name": "Bernd"}},
	}
	for _, test := range []struct {
		name          string
		compressAbove int
		encoding      string
		wantEncoding  string
	}{
		{"plain", 0, "", ""},
		{"small body stays plain", 1 << 20, "", ""},
		{"gzip", 1, "", "gzip"},
		{"zstd", 1, netutil.EncodingZstd, "zstd"},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			mux := http.NewServeMux()
			mux.HandleFunc("POST /import/finalize", func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Content-Encoding"); got != test.wantEncoding {
					t.Errorf("Content-Encoding = %q, want %q", got, test.wantEncoding)
				}
				var received importapi.FinalizeRequest
				if err := netutil.DecodeRequest(r, 1<<20, &received); err != nil {
					t.Errorf("DecodeRequest: %v", err)
				}
				if diff := cmp.Diff(request, received); diff != "" {
					t.Errorf("finalize body (-want +got):\n%s", diff)
				}
				netutil.WriteJSON(w, http.StatusOK, importapi.FinalizeResponse{Success: true, RedirectURL: "/kontakte", Imported: 2})
			})
			client := newTestClient(t, mux, func(config *Config) {
				config.CompressAbove = test.compressAbove
				config.Encoding = test.encoding
			})

			response, err := client.Finalize(t.Context(), request)
			if err != nil {
				t.Fatalf("Finalize: %v", err)
			}
			if !response.Success || response.RedirectURL != "/kontakte" || response.Imported != 2 {
				t.Errorf("response = %+v", response)
			}
		})
	}
}

func TestFinalizeRejected(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /import/finalize", func(w http.ResponseWriter, r *http.Request) {
		netutil.WriteJSON(w, http.StatusNotFound, importapi.FinalizeResponse{Error: "Vorlage nicht gefunden."})
	})
	client := newTestClient(t, mux, nil)

	_, err := client.Finalize(t.Context(), importapi.FinalizeRequest{TemplateID: 9})
	var serverErr *importapi.ServerError
	if !errors.As(err, &serverErr) || serverErr.Message != "Vorlage nicht gefunden." {
		t.Fatalf("Finalize = %v, want ServerError with message", err)
	}
}

func TestTemplates(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/vorlagen", func(w http.ResponseWriter, r *http.Request) {
		if got, want := r.Header.Get("User-Agent"), "kontakte-import/"+version.Short(); got != want {
			t.Errorf("User-Agent = %q, want %q", got, want)
		}
		netutil.WriteJSON(w, http.StatusOK, vorlage.Standard())
	})
	client := newTestClient(t, mux, nil)

	catalog, err := client.Templates(t.Context())
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if diff := cmp.Diff(vorlage.Standard(), catalog); diff != "" {
		t.Errorf("catalog (-want +got):\n%s", diff)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()
	for _, config := range []Config{
		{},
		{BaseURL: "ftp://example.org"},
		{BaseURL: "http://example.org", Encoding: "br"},
	} {
		if _, err := New(config); err == nil {
			t.Errorf("New(%+v) succeeded, want error", config)
		}
	}
}
