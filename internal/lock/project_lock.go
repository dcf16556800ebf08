// Package lock guards a project destination while a scaffold run is
// deciding whether it can claim it.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// Suffix is appended to the hidden lock file name next to the destination.
const Suffix = ".tin-lock"

// Info contains the metadata stored in a lock file.
type Info struct {
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
	Project   string    `json:"project,omitempty"`
}

// ErrLocked indicates a non-stale lock is held by another run.
type ErrLocked struct {
	Dest string
	Info *Info // nil if lock file is unreadable
	Path string
}

func (e *ErrLocked) Error() string {
	if e.Info != nil {
		return fmt.Sprintf("%s is being created by pid %d since %s (lock file: %s)",
			e.Dest, e.Info.PID, e.Info.CreatedAt.Format(time.RFC3339), e.Path)
	}
	return fmt.Sprintf("%s is being created by another run (lock file: %s)", e.Dest, e.Path)
}

// ProjectLock serializes runs that target the same destination.
type ProjectLock struct {
	StaleAfter time.Duration
	Now        func() time.Time
	IsPIDAlive func(pid int) bool
}

// New returns a ProjectLock with defaults:
// - StaleAfter: 30m
// - Now: time.Now
// - IsPIDAlive: signal 0 probe
func New() ProjectLock {
	return ProjectLock{
		StaleAfter: 30 * time.Minute,
		Now:        time.Now,
		IsPIDAlive: isPIDAlive,
	}
}

// PathFor returns the lock file path for dest: a hidden sibling.
func PathFor(dest string) string {
	return filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+Suffix)
}

// Acquire takes the lock for dest and returns an unlock function.
// The parent directory of dest must exist.
// If already locked and not stale: returns *ErrLocked.
func (l ProjectLock) Acquire(dest string) (unlock func() error, err error) {
	lockPath := PathFor(dest)
	const maxRetries = 3

	for attempt := 0; attempt < maxRetries; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			info := Info{
				PID:       os.Getpid(),
				CreatedAt: l.Now(),
				Project:   filepath.Base(dest),
			}
			data, _ := json.Marshal(info)
			if _, writeErr := f.Write(data); writeErr != nil {
				f.Close()
				os.Remove(lockPath)
				return nil, fmt.Errorf("failed to write lock file: %w", writeErr)
			}
			if closeErr := f.Close(); closeErr != nil {
				os.Remove(lockPath)
				return nil, fmt.Errorf("failed to close lock file: %w", closeErr)
			}
			return func() error {
				err := os.Remove(lockPath)
				if err != nil && !os.IsNotExist(err) {
					return err
				}
				return nil
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		info, readErr := readInfo(lockPath)
		if readErr != nil {
			// Half-written or foreign file: fall back to mtime
			stat, statErr := os.Stat(lockPath)
			if statErr != nil {
				return nil, &ErrLocked{Dest: dest, Path: lockPath}
			}
			if l.Now().Sub(stat.ModTime()) <= l.StaleAfter {
				return nil, &ErrLocked{Dest: dest, Path: lockPath}
			}
			if removeErr := os.Remove(lockPath); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, &ErrLocked{Dest: dest, Path: lockPath}
			}
			continue
		}

		if l.isStale(info) {
			if removeErr := os.Remove(lockPath); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, &ErrLocked{Dest: dest, Info: info, Path: lockPath}
			}
			continue
		}

		return nil, &ErrLocked{Dest: dest, Info: info, Path: lockPath}
	}

	return nil, &ErrLocked{Dest: dest, Path: lockPath}
}

func readInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (l ProjectLock) isStale(info *Info) bool {
	if !l.IsPIDAlive(info.PID) {
		return true
	}
	return l.Now().Sub(info.CreatedAt) > l.StaleAfter
}

// isPIDAlive sends signal 0, which only checks that the process exists.
func isPIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM: exists but owned by someone else
	return errors.Is(err, syscall.EPERM)
}
