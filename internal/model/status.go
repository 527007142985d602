package model

import "strings"

// EncodingStatus is the server-side transcode state of an uploaded item,
// as reported by the MediaCMS media detail endpoint.
type EncodingStatus string

const (
	EncodingPending EncodingStatus = "pending"
	EncodingRunning EncodingStatus = "running"
	EncodingSuccess EncodingStatus = "success"
	EncodingFail    EncodingStatus = "fail"
	EncodingUnknown EncodingStatus = "unknown"
)

// ParseEncodingStatus maps a raw server status string onto the enum.
// Anything unrecognized (including empty) is EncodingUnknown, which
// callers treat as transient.
func ParseEncodingStatus(raw string) EncodingStatus {
	switch EncodingStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case EncodingPending:
		return EncodingPending
	case EncodingRunning:
		return EncodingRunning
	case EncodingSuccess:
		return EncodingSuccess
	case EncodingFail:
		return EncodingFail
	default:
		return EncodingUnknown
	}
}

// IsTerminal reports whether the status releases an encoding gate.
// Only success and fail are terminal; unknown is always retried.
func (s EncodingStatus) IsTerminal() bool {
	return s == EncodingSuccess || s == EncodingFail
}

func (s EncodingStatus) String() string {
	if s == "" {
		return string(EncodingUnknown)
	}
	return string(s)
}
