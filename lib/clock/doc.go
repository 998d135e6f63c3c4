// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock lets the import wizard's status poller and the server's
// task sweeper run against injected time.
//
// Production code passes Real(). Tests pass Fake(), which only moves
// when Advance is called:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	wizard, _ := importwizard.New(importwizard.Config{Clock: fake, ...})
//	go wizard.SubmitFiles(ctx, files)
//	fake.WaitForTimers(1)       // poller is waiting for its next tick
//	fake.Advance(time.Second)   // release exactly one status request
//
// WaitForTimers closes the race between a goroutine arming a wait and
// the test advancing the clock past it.
package clock
