package cmd

import "testing"

func TestVersionString(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, BuildDate
	defer func() { Version, Commit, BuildDate = oldVersion, oldCommit, oldDate }()

	Version, Commit, BuildDate = "1.2.3", "abc123", "2026-01-01"

	want := "nebulafleet-agent 1.2.3 (commit: abc123, built: 2026-01-01)"
	if got := versionString(); got != want {
		t.Errorf("versionString() = %q, want %q", got, want)
	}
}
