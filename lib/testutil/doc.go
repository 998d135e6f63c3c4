// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the kontakte test suites.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// valve around channel waits so that a broken test fails instead of
// hanging. They are the only place tests wait on wall-clock time;
// everything else runs on a fake clock.
//
// [Logger] returns a slog.Logger that writes through t.Log, so log
// output appears next to the failing test.
package testutil
