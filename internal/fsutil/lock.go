package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	syncLockDirName   = ".sync.lock"
	syncLockOwnerFile = "owner.json"
)

// SyncLock guards an output directory against two sync processes
// downloading into it at the same time.
type SyncLock struct {
	lockDir string
}

type syncLockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

func AcquireSyncLock(outputDir string) (SyncLock, error) {
	target := strings.TrimSpace(outputDir)
	if target == "" {
		return SyncLock{}, fmt.Errorf("output directory is required")
	}

	lockDir := filepath.Join(target, syncLockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			ownerPath := filepath.Join(lockDir, syncLockOwnerFile)
			var owner syncLockOwner
			if readErr := ReadJSON(ownerPath, &owner); readErr == nil && owner.PID > 0 && owner.CreatedAt != "" {
				return SyncLock{}, fmt.Errorf(
					"output directory is locked: %s (pid=%d created_at=%s host=%s)",
					target, owner.PID, owner.CreatedAt, owner.Hostname,
				)
			}
			return SyncLock{}, fmt.Errorf("output directory is locked: %s", target)
		}
		return SyncLock{}, fmt.Errorf("acquire sync lock for %s: %w", target, err)
	}

	owner := syncLockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	ownerPath := filepath.Join(lockDir, syncLockOwnerFile)
	if err := WriteJSON(ownerPath, owner); err != nil {
		_ = os.Remove(lockDir)
		return SyncLock{}, fmt.Errorf("write sync lock owner for %s: %w", target, err)
	}

	return SyncLock{lockDir: lockDir}, nil
}

func (l SyncLock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, syncLockOwnerFile))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release sync lock %s: %w", l.lockDir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
