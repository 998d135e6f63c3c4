// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package importclient is the HTTP transport of the import wizard. It
// speaks the contract in package importapi and satisfies
// importwizard.Transport.
package importclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/importwizard"
	"github.com/bureau-foundation/kontakte/lib/netutil"
	"github.com/bureau-foundation/kontakte/lib/version"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the contact server root, e.g. "http://localhost:5000".
	BaseURL string

	// HTTPClient sends the requests. Nil means a client without an
	// overall timeout; uploads of large files must not be cut off.
	HTTPClient *http.Client

	// RequestTimeout bounds status, finalize and template requests.
	// Zero means no bound beyond the caller's context.
	RequestTimeout time.Duration

	// CompressAbove sends finalize bodies larger than this many bytes
	// with Content-Encoding set to Encoding. Zero disables compression.
	CompressAbove int

	// Encoding is netutil.EncodingGzip (default) or netutil.EncodingZstd.
	Encoding string

	// UserAgent is sent with every request. Empty means
	// "kontakte-import/" plus the build version.
	UserAgent string

	// Logger receives request logs. Nil discards them.
	Logger *slog.Logger
}

// Client talks to one contact server.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	requestTimeout time.Duration
	compressAbove  int
	encoding       string
	userAgent      string
	logger         *slog.Logger
}

var _ importwizard.Transport = (*Client)(nil)

// New validates config and returns a Client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("importclient: BaseURL is required")
	}
	baseURL, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("importclient: parsing BaseURL: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("importclient: BaseURL %q must be http or https", config.BaseURL)
	}
	if config.Encoding == "" {
		config.Encoding = netutil.EncodingGzip
	}
	if config.Encoding != netutil.EncodingGzip && config.Encoding != netutil.EncodingZstd {
		return nil, fmt.Errorf("importclient: unsupported encoding %q", config.Encoding)
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.UserAgent == "" {
		config.UserAgent = "kontakte-import/" + version.Short()
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     config.HTTPClient,
		requestTimeout: config.RequestTimeout,
		compressAbove:  config.CompressAbove,
		encoding:       config.Encoding,
		userAgent:      config.UserAgent,
		logger:         config.Logger,
	}, nil
}

func (client *Client) endpoint(path string) string {
	return client.baseURL.String() + path
}

func (client *Client) do(request *http.Request) (*http.Response, error) {
	request.Header.Set("User-Agent", client.userAgent)
	return client.httpClient.Do(request)
}

// withTimeout applies RequestTimeout to short requests.
func (client *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if client.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, client.requestTimeout)
}

// Upload sends files as one multipart request, one "files" part per
// file. progress is called as the request body is consumed by the
// transport, ending with loaded == total once the body is sent.
func (client *Client) Upload(ctx context.Context, files []importwizard.File, progress func(loaded, total int64)) (string, error) {
	body, contentType, err := multipartBody(files)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	total := int64(len(body))
	reader := &progressReader{reader: bytes.NewReader(body), total: total, report: progress}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint(importapi.UploadPath), reader)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	request.ContentLength = total
	request.Header.Set("Content-Type", contentType)
	request.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	if progress != nil {
		progress(0, total)
	}
	response, err := client.do(request)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusAccepted {
		return "", &importapi.ServerError{StatusCode: response.StatusCode, Message: netutil.ErrorMessage(response.Body)}
	}
	var accepted importapi.UploadResponse
	if err := netutil.DecodeResponse(response.Body, &accepted); err != nil || accepted.TaskID == "" {
		return "", &importapi.ServerError{StatusCode: response.StatusCode}
	}
	reader.finish()
	client.logger.Debug("upload accepted", "task_id", accepted.TaskID, "bytes", total, "files", len(files))
	return accepted.TaskID, nil
}

func multipartBody(files []importwizard.File) ([]byte, string, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	for _, file := range files {
		part, err := writer.CreateFormFile(importapi.UploadField, file.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buffer.Bytes(), writer.FormDataContentType(), nil
}

// progressReader reports bytes consumed by the HTTP transport.
type progressReader struct {
	reader *bytes.Reader
	total  int64
	report func(loaded, total int64)

	mu     sync.Mutex
	loaded int64
}

func (reader *progressReader) Read(p []byte) (int, error) {
	n, err := reader.reader.Read(p)
	if n > 0 && reader.report != nil {
		reader.mu.Lock()
		reader.loaded += int64(n)
		loaded := reader.loaded
		reader.mu.Unlock()
		reader.report(loaded, reader.total)
	}
	return n, err
}

// finish reports completion when the transport sent the body without
// reading it to EOF through Read (for example via a retry's GetBody).
func (reader *progressReader) finish() {
	reader.mu.Lock()
	done := reader.loaded >= reader.total
	reader.mu.Unlock()
	if !done && reader.report != nil {
		reader.report(reader.total, reader.total)
	}
}

// Status fetches the state of an import task.
func (client *Client) Status(ctx context.Context, taskID string) (importapi.StatusResponse, error) {
	ctx, cancel := client.withTimeout(ctx)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.endpoint(importapi.StatusPath(taskID)), nil)
	if err != nil {
		return importapi.StatusResponse{}, fmt.Errorf("status: %w", err)
	}
	response, err := client.do(request)
	if err != nil {
		return importapi.StatusResponse{}, fmt.Errorf("status: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return importapi.StatusResponse{}, &importapi.ServerError{StatusCode: response.StatusCode, Message: netutil.ErrorMessage(response.Body)}
	}
	var status importapi.StatusResponse
	if err := netutil.DecodeResponse(response.Body, &status); err != nil {
		return importapi.StatusResponse{}, fmt.Errorf("status: %w", err)
	}
	return status, nil
}

// Finalize submits the mapped rows. A 200 response is decoded as is,
// including success=false; other statuses become *importapi.ServerError.
func (client *Client) Finalize(ctx context.Context, finalize importapi.FinalizeRequest) (importapi.FinalizeResponse, error) {
	ctx, cancel := client.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(finalize)
	if err != nil {
		return importapi.FinalizeResponse{}, fmt.Errorf("finalize: %w", err)
	}
	encoding := ""
	if client.compressAbove > 0 && len(body) > client.compressAbove {
		encoding = client.encoding
		plain := len(body)
		if body, err = netutil.EncodeBody(body, encoding); err != nil {
			return importapi.FinalizeResponse{}, fmt.Errorf("finalize: %w", err)
		}
		client.logger.Debug("compressed finalize body", "encoding", encoding, "plain_bytes", plain, "sent_bytes", len(body))
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint(importapi.FinalizePath), bytes.NewReader(body))
	if err != nil {
		return importapi.FinalizeResponse{}, fmt.Errorf("finalize: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if encoding != "" {
		request.Header.Set("Content-Encoding", encoding)
	}
	response, err := client.do(request)
	if err != nil {
		return importapi.FinalizeResponse{}, fmt.Errorf("finalize: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return importapi.FinalizeResponse{}, &importapi.ServerError{StatusCode: response.StatusCode, Message: netutil.ErrorMessage(response.Body)}
	}
	var result importapi.FinalizeResponse
	if err := netutil.DecodeResponse(response.Body, &result); err != nil {
		return importapi.FinalizeResponse{}, fmt.Errorf("finalize: %w", err)
	}
	return result, nil
}

// Templates fetches the server's template catalog.
func (client *Client) Templates(ctx context.Context) (*vorlage.Catalog, error) {
	ctx, cancel := client.withTimeout(ctx)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.endpoint(importapi.TemplatesPath), nil)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	response, err := client.do(request)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("templates: %w", &importapi.ServerError{StatusCode: response.StatusCode, Message: netutil.ErrorMessage(response.Body)})
	}
	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	catalog, err := vorlage.ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	return catalog, nil
}
