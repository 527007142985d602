package tui

import (
	"fmt"
	"strings"
	"testing"

	"yt2mediacms/internal/model"
)

func TestDashboardViewTracksCounters(t *testing.T) {
	d := NewDashboard(3)
	d.DownloadStarted(1, "v1")
	d.DownloadCompleted(1, "v1")
	d.UploadStarted(1, "v1")
	d.UploadCompleted(1, "v1", "ft-1")
	d.DownloadFailed(2, "v2", fmt.Errorf("boom"))
	d.EncodingUpdate(1, "ft-1", model.EncodingRunning)

	view := d.view()
	if !strings.Contains(view, "downloaded 1 (fail 1)") {
		t.Errorf("missing download counters: %s", view)
	}
	if !strings.Contains(view, "uploaded 1 (fail 0)") {
		t.Errorf("missing upload counters: %s", view)
	}
	if !strings.Contains(view, "MC:ft-1") || !strings.Contains(view, "[running]") {
		t.Errorf("missing encoding wait line: %s", view)
	}
	if !strings.Contains(view, "uploaded v1 as ft-1") {
		t.Errorf("missing event line: %s", view)
	}
}

func TestDashboardEventLogCaps(t *testing.T) {
	d := NewDashboard(100)
	for i := 0; i < 20; i++ {
		d.DownloadCompleted(1, fmt.Sprintf("v%d", i))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.events) != maxEvents {
		t.Fatalf("event log length = %d, want %d", len(d.events), maxEvents)
	}
	if d.events[0] != "downloaded v19" {
		t.Fatalf("newest event = %q", d.events[0])
	}
}
