// Package lock guards a profile directory so only one interactive client
// writes its archive at a time.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// FileName is the lock file created inside the profile directory.
const FileName = "LOCK"

// HeldError is returned when another process holds the profile lock.
type HeldError struct {
	PID  int
	Path string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("profile in use by PID %d (%s)", e.PID, e.Path)
}

// Lock is an acquired profile lock.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive, non-blocking flock on dir/LOCK and records the
// holder's PID in it.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, &HeldError{PID: Holder(dir), Path: path}
	}

	content := fmt.Sprintf("pid=%d\nsince=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := f.Truncate(0); err == nil {
		_, err = f.WriteAt([]byte(content), 0)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write lock file: %w", err)
		}
	} else {
		_ = f.Close()
		return nil, fmt.Errorf("truncate lock file: %w", err)
	}
	return &Lock{file: f, path: path}, nil
}

// Holder returns the PID recorded in dir/LOCK, or 0.
func Holder(dir string) int {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if after, ok := strings.CutPrefix(line, "pid="); ok {
			pid, _ := strconv.Atoi(strings.TrimSpace(after))
			return pid
		}
	}
	return 0
}

// Release removes the lock file and drops the lock. Safe to call on a nil
// receiver and more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}
