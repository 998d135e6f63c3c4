// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func stubVersion(t *testing.T, commit, dirty, built string, info *debug.BuildInfo) {
	savedCommit, savedDirty, savedTime, savedRead := GitCommit, GitDirty, BuildTime, readBuildInfo
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, readBuildInfo = savedCommit, savedDirty, savedTime, savedRead
	})
	GitCommit, GitDirty, BuildTime = commit, dirty, built
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
}

func TestInfoFromLinkerFlags(t *testing.T) {
	stubVersion(t, "abc1234", "true", "2026-03-01T10:00:00Z", &debug.BuildInfo{
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffffff"}},
	})
	if got, want := Info(), Version+" (abc1234-dirty, 2026-03-01T10:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	if !strings.Contains(Full(), runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q, want the platform", Full())
	}
	if Short() != Version {
		t.Errorf("Short() = %q, want %q", Short(), Version)
	}
}

func TestInfoFromBuildInfo(t *testing.T) {
	stubVersion(t, "unknown", "false", "unknown", &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "false"},
			{Key: "vcs.time", Value: "2026-10-01T08:00:00Z"},
		},
	})
	if got, want := Info(), Version+" (0123456, 2026-10-01T08:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestInfoWithoutBuildInfo(t *testing.T) {
	stubVersion(t, "unknown", "false", "unknown", nil)
	if got, want := Info(), Version+" (unknown, unknown)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}
