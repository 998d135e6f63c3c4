// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/kontakte/lib/config"
	"github.com/bureau-foundation/kontakte/lib/importclient"
	"github.com/bureau-foundation/kontakte/lib/testutil"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

func TestServeAnswersTemplatesAndStops(t *testing.T) {
	serverConfig := config.Default().Server
	serverConfig.Address = "127.0.0.1:0"
	serverConfig.Database = filepath.Join(t.TempDir(), "kontakte.db")
	serverConfig.SweepInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(t.Context())
	listening := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, serverConfig, testutil.Logger(t), listening)
	}()

	addr := testutil.RequireReceive[net.Addr](t, listening, 5*time.Second, "waiting for the server to listen")
	client, err := importclient.New(importclient.Config{BaseURL: "http://" + addr.String()})
	if err != nil {
		t.Fatalf("importclient.New: %v", err)
	}
	catalog, err := client.Templates(t.Context())
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if len(catalog.Templates) != len(vorlage.Standard().Templates) {
		t.Errorf("served %d templates, want the built-in catalog", len(catalog.Templates))
	}

	cancel()
	if err := testutil.RequireReceive[error](t, done, 5*time.Second, "waiting for serve to return"); err != nil {
		t.Errorf("serve = %v, want nil after cancel", err)
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	t.Parallel()
	if err := run([]string{"--no-such-flag"}); err == nil {
		t.Error("run accepted an unknown flag")
	}
}
