package provision

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireProcessLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireProcessLock([]string{dir}, "instance-provision")
	if err != nil {
		t.Fatalf("AcquireProcessLock() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "instance-provision.lock", "pid")); err != nil {
		t.Errorf("pid file not written: %v", err)
	}

	_, err = AcquireProcessLock([]string{dir}, "instance-provision")
	if err == nil {
		t.Fatal("second AcquireProcessLock() error = nil, want contention failure while first lock is live")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	lock2, err := AcquireProcessLock([]string{dir}, "instance-provision")
	if err != nil {
		t.Fatalf("AcquireProcessLock() after release error = %v", err)
	}
	lock2.Release()
}

func TestAcquireProcessLock_StaleRecovery(t *testing.T) {
	dir := t.TempDir()
	lockDir := filepath.Join(dir, "instance-provision.lock")
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(lockDir, "pid"), []byte("999999999"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	lock, err := AcquireProcessLock([]string{dir}, "instance-provision")
	if err != nil {
		t.Fatalf("AcquireProcessLock() error = %v, want stale lock recovered", err)
	}
	lock.Release()
}

func TestAcquireProcessLock_FallbackCandidates(t *testing.T) {
	// A regular file blocks MkdirAll regardless of the test's own
	// privileges, unlike a merely-missing directory path.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	unwritable := filepath.Join(blocker, "oci-provision")
	good := t.TempDir()

	lock, err := AcquireProcessLock([]string{unwritable, good}, "instance-provision")
	if err != nil {
		t.Fatalf("AcquireProcessLock() error = %v, want fallback to second candidate", err)
	}
	defer lock.Release()

	if _, err := os.Stat(filepath.Join(good, "instance-provision.lock")); err != nil {
		t.Errorf("lock not created under fallback candidate: %v", err)
	}
}
