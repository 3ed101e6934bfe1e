package certmanager

import (
	"testing"
)

func TestGroupsHashOrderIndependent(t *testing.T) {
	a := GroupsHash([]string{"web", "db"})
	b := GroupsHash([]string{"db", "web"})
	if a != b {
		t.Errorf("GroupsHash should be order-independent: %q != %q", a, b)
	}
}

func TestGroupsHashDiffersOnMembership(t *testing.T) {
	a := GroupsHash([]string{"web"})
	b := GroupsHash([]string{"web", "db"})
	if a == b {
		t.Error("GroupsHash should differ when membership changes")
	}
}

func TestGroupsHashEmpty(t *testing.T) {
	if GroupsHash(nil) != GroupsHash([]string{}) {
		t.Error("GroupsHash(nil) and GroupsHash([]string{}) should match")
	}
}

func TestNormalizeVersion(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.10.0", "v1.10.0"},
		{"v1.10.0", "v1.10.0"},
		{"", ""},
		{"not-a-version", ""},
	}
	for _, tc := range cases {
		if got := normalizeVersion(tc.in); got != tc.want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSupportsV2VersionGate(t *testing.T) {
	m := &Manager{cfg: Config{ManagedNebulaVersion: "1.10.0"}}
	if !m.supportsV2() {
		t.Error("1.10.0 should satisfy the v2 gate")
	}

	m = &Manager{cfg: Config{ManagedNebulaVersion: "1.9.7"}}
	if m.supportsV2() {
		t.Error("1.9.7 should not satisfy the v2 gate")
	}

	m = &Manager{cfg: Config{ManagedNebulaVersion: ""}}
	if m.supportsV2() {
		t.Error("unknown version should not satisfy the v2 gate")
	}
}
