// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service runs the contact server's HTTP listener.
//
// [HTTPServer] binds the listener, signals readiness, serves until its
// context is cancelled and then drains in-flight requests. The caller
// supplies the routing; [LogRequests] wraps it with one structured log
// line per request.
package service
