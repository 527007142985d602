package mediacms

import (
	"testing"

	"yt2mediacms/internal/model"
)

func detailWith(overall string, height int, rungs map[string]string) MediaDetail {
	info := make(map[string]map[string]Encode, len(rungs))
	for rung, status := range rungs {
		info[rung] = map[string]Encode{"h264": {Status: status}}
	}
	return MediaDetail{EncodingStatus: overall, VideoHeight: height, EncodingsInfo: info}
}

func TestResolveEncodingStatusTopLevelShortCircuit(t *testing.T) {
	for _, overall := range []string{"pending", "running"} {
		got := ResolveEncodingStatus(detailWith(overall, 1080, map[string]string{"1080": "success"}))
		if got != model.ParseEncodingStatus(overall) {
			t.Errorf("overall %q resolved to %s", overall, got)
		}
	}
}

func TestResolveEncodingStatusTargetRung(t *testing.T) {
	// 1080 source: the 1080 rung is authoritative even though the
	// top-level status already says success.
	detail := detailWith("success", 1080, map[string]string{
		"1080": "running",
		"720":  "success",
	})
	if got := ResolveEncodingStatus(detail); got != model.EncodingRunning {
		t.Fatalf("status = %s, want running", got)
	}

	detail = detailWith("success", 1080, map[string]string{
		"1080": "success",
		"720":  "success",
	})
	if got := ResolveEncodingStatus(detail); got != model.EncodingSuccess {
		t.Fatalf("status = %s, want success", got)
	}
}

func TestResolveEncodingStatusTargetBelowLadder(t *testing.T) {
	// A 144p source maps to the lowest rung.
	detail := detailWith("success", 144, map[string]string{"240": "running"})
	if got := ResolveEncodingStatus(detail); got != model.EncodingRunning {
		t.Fatalf("status = %s, want running", got)
	}
}

func TestResolveEncodingStatusMissingTargetFallsBack(t *testing.T) {
	// 1080 source but the server only produced 480 and 240. The highest
	// available rung decides.
	detail := detailWith("success", 1080, map[string]string{
		"480": "running",
		"240": "success",
	})
	if got := ResolveEncodingStatus(detail); got != model.EncodingRunning {
		t.Fatalf("status = %s, want running from 480 rung", got)
	}

	detail = detailWith("success", 1080, map[string]string{
		"480": "success",
		"240": "fail",
	})
	if got := ResolveEncodingStatus(detail); got != model.EncodingFail {
		t.Fatalf("status = %s, want fail from lower rung walk", got)
	}

	detail = detailWith("success", 1080, map[string]string{
		"480": "success",
		"240": "success",
	})
	if got := ResolveEncodingStatus(detail); got != model.EncodingSuccess {
		t.Fatalf("status = %s, want success when all available rungs done", got)
	}
}

func TestResolveEncodingStatusNoRungsUsesOverall(t *testing.T) {
	detail := detailWith("fail", 720, nil)
	if got := ResolveEncodingStatus(detail); got != model.EncodingFail {
		t.Fatalf("status = %s, want overall fail", got)
	}

	detail = detailWith("", 720, nil)
	if got := ResolveEncodingStatus(detail); got != model.EncodingUnknown {
		t.Fatalf("status = %s, want unknown for empty overall", got)
	}
}
