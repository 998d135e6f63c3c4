// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importtask

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/bureau-foundation/kontakte/lib/clock"
	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/importer"
	"github.com/bureau-foundation/kontakte/lib/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// waitComplete polls Status until the task completes.
func waitComplete(t *testing.T, tracker *Tracker, id string) importapi.StatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second) //nolint:realclock test hang prevention
	for time.Now().Before(deadline) {           //nolint:realclock test hang prevention
		status, ok := tracker.Status(id)
		if !ok {
			t.Fatalf("task %s vanished", id)
		}
		if status.Status == importapi.StatusComplete {
			return status
		}
		time.Sleep(time.Millisecond) //nolint:realclock polling a real goroutine
	}
	t.Fatalf("task %s did not complete", id)
	panic("unreachable")
}

func TestStartMergesFiles(t *testing.T) {
	tracker := New(Config{Clock: clock.Fake(epoch), Logger: testutil.Logger(t), PreviewRows: 2})
	defer tracker.Close()

	id, err := tracker.Start([]File{
		{Name: "a.csv", Content: []byte("Vorname,Ort\nAnna,Köln\nBernd,Bonn\n")},
		{Name: "scan.pdf", Content: []byte("x")},
		{Name: "b.txt", Content: []byte("Vorname\tE-Mail\nCarla\tc@example.de\n")},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("task id %q is not 32 hex digits", id)
	}

	status := waitComplete(t, tracker, id)
	want := &importapi.ImportData{
		Headers: []string{"Vorname", "Ort", "Anrede", "E-Mail"},
		PreviewData: []importapi.Row{
			{"Vorname": "Anna", "Ort": "Köln", "Anrede": "Frau"},
			{"Vorname": "Bernd", "Ort": "Bonn", "Anrede": "Herr"},
		},
		OriginalData: []importapi.Row{
			{"Vorname": "Anna", "Ort": "Köln", "Anrede": "Frau"},
			{"Vorname": "Bernd", "Ort": "Bonn", "Anrede": "Herr"},
			{"Vorname": "Carla", "E-Mail": "c@example.de", "Anrede": "Frau"},
		},
		Errors: []importapi.FileError{{
			Filename: "scan.pdf",
			Error:    "Dateityp .pdf wird für den Import noch nicht unterstützt.",
		}},
	}
	if diff := cmp.Diff(want, status.Data); diff != "" {
		t.Errorf("result (-want +got):\n%s", diff)
	}
	if status.Progress != 3 || status.Total != 3 {
		t.Errorf("progress = %d/%d, want 3/3", status.Progress, status.Total)
	}
	if _, ok := tracker.Status(id); ok {
		t.Error("complete task still reported after it was collected")
	}
}

func TestStatusReportsProgress(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	tracker := New(Config{
		Clock:   clock.Fake(epoch),
		Workers: 1,
		Parse: func(filename string, data []byte) (*importer.Table, error) {
			if filename == "slow.csv" {
				entered <- struct{}{}
				<-release
			}
			return &importer.Table{Headers: []string{"Name"}, Records: []importapi.Row{{"Name": filename}}}, nil
		},
	})
	defer tracker.Close()

	id, err := tracker.Start([]File{{Name: "fast.csv"}, {Name: "slow.csv"}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// One worker: the slow file starts only after the fast one counted.
	testutil.RequireReceive(t, entered, 5*time.Second, "slow file to start")

	status, ok := tracker.Status(id)
	if !ok {
		t.Fatal("Status: task unknown")
	}
	if status.Status != importapi.StatusProcessing || status.Progress != 1 || status.Total != 2 || status.Data != nil {
		t.Errorf("status while processing = %+v, want processing 1/2", status)
	}
	if status.Percent() != 50 {
		t.Errorf("Percent = %d, want 50", status.Percent())
	}

	close(release)
	final := waitComplete(t, tracker, id)
	if len(final.Data.OriginalData) != 2 {
		t.Errorf("rows = %v, want both files", final.Data.OriginalData)
	}
}

func TestParseFailureIsSystemError(t *testing.T) {
	tracker := New(Config{
		Parse: func(string, []byte) (*importer.Table, error) {
			return nil, errors.New("disk on fire")
		},
	})
	defer tracker.Close()

	id, err := tracker.Start([]File{{Name: "a.csv"}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	data := waitComplete(t, tracker, id).Data
	if len(data.Errors) != 1 || data.Errors[0].Error != "Systemfehler: disk on fire" {
		t.Errorf("errors = %+v", data.Errors)
	}
	if data.Headers == nil || data.OriginalData == nil {
		t.Error("empty result must still carry non-nil headers and rows")
	}
}

func TestUnknownTask(t *testing.T) {
	tracker := New(Config{})
	defer tracker.Close()
	if _, ok := tracker.Status("nope"); ok {
		t.Error("Status(unknown) reported a task")
	}
}

func TestSweepDropsExpiredResults(t *testing.T) {
	fake := clock.Fake(epoch)
	tracker := New(Config{Clock: fake, TTL: time.Minute})
	defer tracker.Close()

	id, err := tracker.Start([]File{{Name: "a.csv", Content: []byte("Vorname\nAnna\n")}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second) //nolint:realclock test hang prevention
	for {
		tracker.mu.Lock()
		finished := tracker.tasks[id].data != nil
		tracker.mu.Unlock()
		if finished {
			break
		}
		if time.Now().After(deadline) { //nolint:realclock test hang prevention
			t.Fatal("task did not finish")
		}
		time.Sleep(time.Millisecond) //nolint:realclock polling a real goroutine
	}

	if dropped := tracker.Sweep(); dropped != 0 {
		t.Errorf("Sweep before TTL dropped %d", dropped)
	}
	fake.Advance(time.Minute + time.Second)
	if dropped := tracker.Sweep(); dropped != 1 {
		t.Errorf("Sweep after TTL dropped %d, want 1", dropped)
	}
	if tracker.Len() != 0 {
		t.Errorf("Len = %d after sweep", tracker.Len())
	}
}

func TestRunSweepsOnTicker(t *testing.T) {
	fake := clock.Fake(epoch)
	tracker := New(Config{Clock: fake, TTL: time.Minute})
	defer tracker.Close()

	tracker.mu.Lock()
	tracker.tasks["stale"] = &task{total: 1, done: 1, data: &importapi.ImportData{}, finishedAt: epoch}
	tracker.mu.Unlock()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- tracker.Run(ctx, 10*time.Minute) }()

	fake.WaitForTimers(1)
	fake.Advance(10 * time.Minute)
	deadline := time.Now().Add(5 * time.Second) //nolint:realclock test hang prevention
	for tracker.Len() != 0 {
		if time.Now().After(deadline) { //nolint:realclock test hang prevention
			t.Fatal("ticker sweep did not drop the stale task")
		}
		time.Sleep(time.Millisecond) //nolint:realclock polling a real goroutine
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Run to return"); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestCloseAbandonsRunningTasks(t *testing.T) {
	started := make(chan struct{}, 2)
	tracker := New(Config{
		Workers: 1,
		Parse: func(string, []byte) (*importer.Table, error) {
			started <- struct{}{}
			return &importer.Table{}, nil
		},
	})
	if _, err := tracker.Start([]File{{Name: "a.csv"}, {Name: "b.csv"}}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	testutil.RequireReceive(t, started, 5*time.Second, "first parse")
	tracker.Close()

	if _, err := tracker.Start([]File{{Name: "c.csv"}}); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v, want ErrClosed", err)
	}
}
