// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package importserver serves the contact server's import endpoints:
// multipart upload, task status, finalize, the template catalog, the
// Anrede lookup by first name and a health check. Error bodies are {"error": "..."} with German text for
// the wizard's status line.
package importserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/importer"
	"github.com/bureau-foundation/kontakte/lib/importtask"
	"github.com/bureau-foundation/kontakte/lib/kontaktstore"
	"github.com/bureau-foundation/kontakte/lib/netutil"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

const (
	// DefaultMaxUploadSize bounds one multipart upload.
	DefaultMaxUploadSize = 64 << 20

	// DefaultMaxFinalizeSize bounds a decoded finalize body.
	DefaultMaxFinalizeSize = 128 << 20

	// DefaultRedirectURL is where the browser goes after an import.
	DefaultRedirectURL = "/kontakte"

	// multipartMemory is the part of an upload kept in memory before
	// spilling to temporary files.
	multipartMemory = 16 << 20
)

const (
	messageNoFilePart     = "Keine Dateien im Request gefunden."
	messageNoFileSelected = "Keine Dateien ausgewählt."
	messageUploadTooLarge = "Die hochgeladenen Dateien sind zu groß."
	messageTaskNotFound   = "Task nicht gefunden"
	messageMissingData    = "Fehlende Daten."
	messageBadRequest     = "Ungültige Anfrage."
	messageNoTemplate     = "Vorlage nicht gefunden."
	messageInternal       = "Interner Serverfehler."
)

// Store is the persistence the handler needs. *kontaktstore.Store
// implements it.
type Store interface {
	Catalog(ctx context.Context) (*vorlage.Catalog, error)
	ImportContacts(ctx context.Context, templateID int64, mappings map[string]string, rows []importapi.Row) (int, error)
}

// Config configures a Handler.
type Config struct {
	// Tracker runs uploaded files through the parsers. Required.
	Tracker *importtask.Tracker

	// Store holds templates and contacts. Required.
	Store Store

	// Logger receives request failures. Nil discards them.
	Logger *slog.Logger

	MaxUploadSize   int64
	MaxFinalizeSize int64
	RedirectURL     string
}

// Handler routes the import endpoints.
type Handler struct {
	tracker         *importtask.Tracker
	store           Store
	logger          *slog.Logger
	maxUploadSize   int64
	maxFinalizeSize int64
	redirectURL     string
	mux             *http.ServeMux
}

// New creates a Handler.
func New(config Config) (*Handler, error) {
	if config.Tracker == nil {
		return nil, errors.New("importserver: Tracker is required")
	}
	if config.Store == nil {
		return nil, errors.New("importserver: Store is required")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = DefaultMaxUploadSize
	}
	if config.MaxFinalizeSize <= 0 {
		config.MaxFinalizeSize = DefaultMaxFinalizeSize
	}
	if config.RedirectURL == "" {
		config.RedirectURL = DefaultRedirectURL
	}

	handler := &Handler{
		tracker:         config.Tracker,
		store:           config.Store,
		logger:          config.Logger,
		maxUploadSize:   config.MaxUploadSize,
		maxFinalizeSize: config.MaxFinalizeSize,
		redirectURL:     config.RedirectURL,
		mux:             http.NewServeMux(),
	}
	handler.mux.HandleFunc("POST "+importapi.UploadPath, handler.upload)
	handler.mux.HandleFunc("GET "+importapi.StatusPathPrefix+"{task}", handler.status)
	handler.mux.HandleFunc("POST "+importapi.FinalizePath, handler.finalize)
	handler.mux.HandleFunc("GET "+importapi.TemplatesPath, handler.templates)
	handler.mux.HandleFunc("GET "+importapi.AnredePathPrefix+"{vorname}", handler.anrede)
	handler.mux.HandleFunc("GET "+importapi.HealthPath, handler.health)
	return handler, nil
}

func (handler *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	handler.mux.ServeHTTP(writer, request)
}

func (handler *Handler) writeError(writer http.ResponseWriter, status int, message string) {
	if err := netutil.WriteJSON(writer, status, importapi.ErrorResponse{Error: message}); err != nil {
		handler.logger.Debug("writing error response", "error", err)
	}
}

func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, handler.maxUploadSize)
	if err := request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handler.writeError(writer, http.StatusRequestEntityTooLarge, messageUploadTooLarge)
			return
		}
		handler.writeError(writer, http.StatusBadRequest, messageNoFilePart)
		return
	}
	defer request.MultipartForm.RemoveAll()

	// A file input left empty arrives as a part without filename, which
	// the form parser files under Value.
	headers := request.MultipartForm.File[importapi.UploadField]
	if len(headers) == 0 {
		if _, empty := request.MultipartForm.Value[importapi.UploadField]; empty {
			handler.writeError(writer, http.StatusBadRequest, messageNoFileSelected)
		} else {
			handler.writeError(writer, http.StatusBadRequest, messageNoFilePart)
		}
		return
	}

	files := make([]importtask.File, 0, len(headers))
	for _, header := range headers {
		content, err := readPart(header)
		if err != nil {
			handler.logger.Warn("reading uploaded file", "file", header.Filename, "error", err)
			handler.writeError(writer, http.StatusBadRequest, messageNoFilePart)
			return
		}
		files = append(files, importtask.File{Name: header.Filename, Content: content})
	}

	taskID, err := handler.tracker.Start(files)
	if err != nil {
		handler.logger.Error("starting import task", "error", err)
		handler.writeError(writer, http.StatusServiceUnavailable, messageInternal)
		return
	}
	netutil.WriteJSON(writer, http.StatusAccepted, importapi.UploadResponse{TaskID: taskID})
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (handler *Handler) status(writer http.ResponseWriter, request *http.Request) {
	status, ok := handler.tracker.Status(request.PathValue("task"))
	if !ok {
		handler.writeError(writer, http.StatusNotFound, messageTaskNotFound)
		return
	}
	netutil.WriteJSON(writer, http.StatusOK, status)
}

func (handler *Handler) finalize(writer http.ResponseWriter, request *http.Request) {
	var body importapi.FinalizeRequest
	if err := netutil.DecodeRequest(request, handler.maxFinalizeSize, &body); err != nil {
		if errors.Is(err, netutil.ErrBodyTooLarge) {
			handler.rejectFinalize(writer, http.StatusRequestEntityTooLarge, messageUploadTooLarge)
			return
		}
		handler.logger.Debug("finalize body rejected", "error", err)
		handler.rejectFinalize(writer, http.StatusBadRequest, messageBadRequest)
		return
	}
	if body.TemplateID == 0 || len(body.Mappings) == 0 || len(body.OriginalData) == 0 {
		handler.rejectFinalize(writer, http.StatusBadRequest, messageMissingData)
		return
	}

	imported, err := handler.store.ImportContacts(request.Context(), body.TemplateID, body.Mappings, body.OriginalData)
	var unknown *kontaktstore.UnknownPropertyError
	switch {
	case errors.Is(err, kontaktstore.ErrTemplateNotFound):
		handler.rejectFinalize(writer, http.StatusNotFound, messageNoTemplate)
		return
	case errors.As(err, &unknown):
		handler.rejectFinalize(writer, http.StatusBadRequest, unknown.Error())
		return
	case err != nil:
		handler.logger.Error("import failed", "vorlage_id", body.TemplateID, "error", err)
		handler.rejectFinalize(writer, http.StatusInternalServerError, messageInternal)
		return
	}
	netutil.WriteJSON(writer, http.StatusOK, importapi.FinalizeResponse{
		Success:     true,
		RedirectURL: handler.redirectURL,
		Imported:    imported,
	})
}

func (handler *Handler) rejectFinalize(writer http.ResponseWriter, status int, message string) {
	netutil.WriteJSON(writer, status, importapi.FinalizeResponse{Error: message})
}

func (handler *Handler) templates(writer http.ResponseWriter, request *http.Request) {
	catalog, err := handler.store.Catalog(request.Context())
	if err != nil {
		handler.logger.Error("loading catalog", "error", err)
		handler.writeError(writer, http.StatusInternalServerError, messageInternal)
		return
	}
	netutil.WriteJSON(writer, http.StatusOK, catalog)
}

func (handler *Handler) anrede(writer http.ResponseWriter, request *http.Request) {
	netutil.WriteJSON(writer, http.StatusOK, importapi.AnredeResponse{
		Anrede: importer.AnredeFor(request.PathValue("vorname")),
	})
}

func (handler *Handler) health(writer http.ResponseWriter, request *http.Request) {
	netutil.WriteJSON(writer, http.StatusOK, map[string]string{"status": "ok"})
}
