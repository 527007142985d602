package model

import "testing"

func TestParseEncodingStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want EncodingStatus
	}{
		{"pending", EncodingPending},
		{"running", EncodingRunning},
		{"success", EncodingSuccess},
		{"fail", EncodingFail},
		{"  Success ", EncodingSuccess},
		{"", EncodingUnknown},
		{"garbage", EncodingUnknown},
	}
	for _, c := range cases {
		if got := ParseEncodingStatus(c.raw); got != c.want {
			t.Errorf("ParseEncodingStatus(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestEncodingStatusTerminal(t *testing.T) {
	terminal := map[EncodingStatus]bool{
		EncodingPending: false,
		EncodingRunning: false,
		EncodingSuccess: true,
		EncodingFail:    true,
		EncodingUnknown: false,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestArtifactSidecarPaths(t *testing.T) {
	a := DownloadedArtifact{Path: "/tmp/abc123/20210101-Title-abc123.mp4"}
	if got := a.SidecarPath(); got != "/tmp/abc123/20210101-Title-abc123.info.json" {
		t.Fatalf("sidecar path = %q", got)
	}
	if got := a.ThumbnailPath(); got != "/tmp/abc123/20210101-Title-abc123.jpg" {
		t.Fatalf("thumbnail path = %q", got)
	}
}

func TestArtifactPathWithoutExtension(t *testing.T) {
	a := DownloadedArtifact{Path: "/tmp/dir.with.dots/noext"}
	if got := a.SidecarPath(); got != "/tmp/dir.with.dots/noext.info.json" {
		t.Fatalf("sidecar path = %q", got)
	}
}
