// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds the JSON-over-HTTP helpers shared by the import
// client and the contact server.
//
// Reads are bounded: responses at MaxResponseSize, request bodies at a
// caller-chosen limit applied after decompression, so a small
// compressed body cannot expand without bound. Request bodies may be
// sent gzip- or zstd-compressed; [EncodeBody] and [DecodeRequest] are
// the two ends of that.
package netutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// MaxResponseSize bounds JSON response reads: 256 MB.
const MaxResponseSize int64 = 256 << 20

// Content encodings understood by EncodeBody and DecodeRequest.
const (
	EncodingGzip = "gzip"
	EncodingZstd = "zstd"
)

// ErrBodyTooLarge is returned by DecodeRequest when the decoded body
// exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a response body (up to MaxResponseSize bytes)
// and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorMessage extracts the "error" field of a JSON error body. It
// returns "" when the body is not JSON or has no such field.
func ErrorMessage(body io.Reader) string {
	data, _ := ReadResponse(body)
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(writer http.ResponseWriter, status int, v any) error {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(status)
	return json.NewEncoder(writer).Encode(v)
}

// EncodeBody compresses data with the named content encoding. An empty
// encoding returns data unchanged.
func EncodeBody(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case "":
		return data, nil
	case EncodingGzip:
		var buffer bytes.Buffer
		writer := gzip.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return buffer.Bytes(), nil
	case EncodingZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, nil), nil
	}
	return nil, fmt.Errorf("unsupported content encoding %q", encoding)
}

// DecodeRequest JSON-decodes a request body into v, undoing a gzip or
// zstd Content-Encoding. At most limit decoded bytes are accepted.
func DecodeRequest(request *http.Request, limit int64, v any) error {
	var body io.Reader = request.Body
	switch encoding := strings.ToLower(strings.TrimSpace(request.Header.Get("Content-Encoding"))); encoding {
	case "", "identity":
	case EncodingGzip:
		reader, err := gzip.NewReader(request.Body)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		defer reader.Close()
		body = reader
	case EncodingZstd:
		decoder, err := zstd.NewReader(request.Body)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		defer decoder.Close()
		body = decoder
	default:
		return fmt.Errorf("unsupported content encoding %q", encoding)
	}

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if int64(len(data)) > limit {
		return ErrBodyTooLarge
	}
	return json.Unmarshal(data, v)
}
