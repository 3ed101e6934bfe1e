package cmd

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"nebulafleet.dev/cmd/agent/daemon"
)

func TestStatusModel_Update_MetricsLoaded(t *testing.T) {
	m := newStatusModel(t.TempDir())

	next, _ := m.Update(metricsLoadedMsg(daemon.Metrics{CrashCount: 3, RestartCount: 1}))
	sm := next.(statusModel)

	if !sm.loaded {
		t.Fatal("expected loaded=true after metricsLoadedMsg")
	}
	if sm.metrics.CrashCount != 3 {
		t.Errorf("CrashCount = %d, want 3", sm.metrics.CrashCount)
	}
}

func TestStatusModel_Update_CertExpiry(t *testing.T) {
	m := newStatusModel(t.TempDir())
	expiry := time.Now().Add(24 * time.Hour)

	next, _ := m.Update(certExpiryMsg{expiry: expiry})
	sm := next.(statusModel)

	if !sm.certExpiry.Equal(expiry) {
		t.Errorf("certExpiry = %v, want %v", sm.certExpiry, expiry)
	}
}

func TestStatusModel_Update_Quit(t *testing.T) {
	m := newStatusModel(t.TempDir())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command for 'q'")
	}
}

func TestStatusModel_View_BeforeLoad(t *testing.T) {
	m := newStatusModel(t.TempDir())
	view := m.View()
	if view == "" {
		t.Error("expected non-empty loading view")
	}
}

func TestStatusModel_View_AfterLoad(t *testing.T) {
	m := newStatusModel(t.TempDir())
	m.loaded = true
	m.metrics = daemon.Metrics{CrashCount: 2}

	view := m.View()
	if view == "" {
		t.Error("expected non-empty status view")
	}
}
