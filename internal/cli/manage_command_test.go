package cli

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"yt2mediacms/internal/config"
)

func testGlobalSettings() config.GlobalSettings {
	return config.GlobalSettings{
		OutputDir:       "downloads",
		DownloadWorkers: 2,
		UploadWorkers:   3,
		DelaySeconds:    7,
		WaitForEncoding: boolPtr(false),
		KeepFiles:       true,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

func TestManageBoolFieldSupportsYN(t *testing.T) {
	m := manageModel{
		mode: manageModeForm,
		form: newManageForm(nil, 80),
	}
	if m.form == nil {
		t.Fatal("expected form")
	}
	m.form.Index = findFieldIndexByKey(m.form, "active")
	if m.form.Index < 0 {
		t.Fatal("active field not found")
	}

	model, _ := m.updateForm(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m2 := model.(manageModel)
	if got := m2.form.currentField().Value; got != "n" {
		t.Fatalf("expected active value n after 'n', got %q", got)
	}

	model, _ = m2.updateForm(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	m3 := model.(manageModel)
	if got := m3.form.currentField().Value; got != "y" {
		t.Fatalf("expected active value y after 'y', got %q", got)
	}
}

func TestManageBoolFieldSupportsArrowAndSpace(t *testing.T) {
	m := manageModel{
		mode: manageModeForm,
		form: newManageForm(nil, 80),
	}
	if m.form == nil {
		t.Fatal("expected form")
	}
	m.form.Index = findFieldIndexByKey(m.form, "active")
	if m.form.Index < 0 {
		t.Fatal("active field not found")
	}

	model, _ := m.updateForm(tea.KeyMsg{Type: tea.KeyLeft})
	m2 := model.(manageModel)
	if got := m2.form.currentField().Value; got != "n" {
		t.Fatalf("expected active value n after left, got %q", got)
	}

	model, _ = m2.updateForm(tea.KeyMsg{Type: tea.KeyRight})
	m3 := model.(manageModel)
	if got := m3.form.currentField().Value; got != "y" {
		t.Fatalf("expected active value y after right, got %q", got)
	}

	model, _ = m3.updateForm(tea.KeyMsg{Type: tea.KeySpace})
	m4 := model.(manageModel)
	if got := m4.form.currentField().Value; got != "n" {
		t.Fatalf("expected active value n after space, got %q", got)
	}
}

func TestManageBrowseSyncActiveSetsLaunchingStatus(t *testing.T) {
	m := manageModel{
		mode:   manageModeBrowse,
		cursor: 1, // len(channels)=0 => row 0 is [+] New Channel, row 1 is first Action.
	}

	model, _ := m.updateBrowse(tea.KeyMsg{Type: tea.KeyEnter})
	m2 := model.(manageModel)
	if !m2.launchSyncActive {
		t.Fatal("expected launchSyncActive=true")
	}
	if m2.statusMessage == "" {
		t.Fatal("expected non-empty status message")
	}
}

func TestManageFormRejectsMissingURL(t *testing.T) {
	f := newManageForm(nil, 80)
	if _, err := f.toAddChannelOptions("config.json"); err == nil {
		t.Fatal("expected error for empty channel URL")
	}
}

func TestManageGlobalFormRoundTrip(t *testing.T) {
	f := newManageGlobalForm(testGlobalSettings(), 80)
	got, err := f.toGlobalSettings()
	if err != nil {
		t.Fatalf("toGlobalSettings failed: %v", err)
	}
	if got.DownloadWorkers != 2 || got.UploadWorkers != 3 {
		t.Fatalf("worker counts = %d/%d", got.DownloadWorkers, got.UploadWorkers)
	}
	if got.DelaySeconds != 7 {
		t.Fatalf("delay = %d", got.DelaySeconds)
	}
	if got.WaitForEncoding == nil || *got.WaitForEncoding {
		t.Fatal("wait_for_encoding should be false")
	}
	if got.LogFormat != "json" {
		t.Fatalf("log_format = %q", got.LogFormat)
	}
}

func findFieldIndexByKey(f *manageForm, key string) int {
	if f == nil {
		return -1
	}
	for i, field := range f.Fields {
		if field.Key == key {
			return i
		}
	}
	return -1
}
