// Package lock serializes sync runs per team with file locks. Interaction
// counts are cumulative, so two concurrent runs over the same team would
// double-count sightings; the lease makes at-most-one run active per team.
package lock

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"ProspectPulse/internal/faults"
	"ProspectPulse/internal/ports"
)

// FileLock hands out per-team flock leases under a configured directory.
type FileLock struct {
	dir string
}

var _ ports.RunLock = (*FileLock)(nil)

// New builds a lease factory rooted at dir.
func New(dir string) *FileLock {
	return &FileLock{dir: dir}
}

// Acquire takes the team lease without blocking. When another run holds it,
// faults.ErrLockHeld is returned and the caller must skip the run rather than
// wait.
func (l *FileLock) Acquire(teamID string) (func(), error) {
	lease := flock.New(filepath.Join(l.dir, "prospectpulse-"+sanitize(teamID)+".lock"))

	ok, err := lease.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire team lease: %w", err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrLockHeld, "lock", teamID, nil)
	}

	return func() { _ = lease.Unlock() }, nil
}

func sanitize(teamID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, teamID)
}
