package audio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// Reaper kills player processes left behind by a previous run of the daemon.
type Reaper struct {
	// processes lists running processes; replaced in tests.
	processes func() ([]ps.Process, error)
	// kill terminates a pid; replaced in tests.
	kill func(pid int) error
}

// NewReaper returns a Reaper acting on the real process table.
func NewReaper() *Reaper {
	return &Reaper{
		processes: ps.Processes,
		kill: func(pid int) error {
			p, err := os.FindProcess(pid)
			if err != nil {
				return err
			}
			return p.Kill()
		},
	}
}

// ReapStale kills every process whose executable matches the player program
// and whose parent is init, i.e. orphans of a crashed daemon. It returns the
// number of processes killed.
func (r *Reaper) ReapStale(playerCmd []string) (int, error) {
	if len(playerCmd) == 0 {
		return 0, nil
	}
	name := filepath.Base(playerCmd[0])

	list, err := r.processes()
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}

	self := os.Getpid()
	killed := 0
	for _, p := range list {
		if p.Pid() == self || p.Executable() != name || p.PPid() != 1 {
			continue
		}
		if err := r.kill(p.Pid()); err != nil {
			return killed, fmt.Errorf("kill %s (pid %d): %w", name, p.Pid(), err)
		}
		killed++
	}
	return killed, nil
}
