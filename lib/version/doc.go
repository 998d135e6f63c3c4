// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the kontakte
// binaries.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// For example:
//
//	go build -ldflags "-X github.com/bureau-foundation/kontakte/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Without them, the commit, dirty flag and time come from the VCS
// stamp that go build records in the binary ([debug.ReadBuildInfo]).
// Test binaries carry no stamp and report "unknown".
//
// [Info] is the --version output of both commands; [Full] adds the Go
// version and platform. The import client sends [Short] in its
// User-Agent header.
package version
