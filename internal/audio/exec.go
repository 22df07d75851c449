package audio

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// volumePlaceholder is replaced by the level in every mixer argument.
const volumePlaceholder = "{volume}"

// ExecPlayer runs one player process per track. The track file is passed as
// the last argument of the player command.
type ExecPlayer struct {
	catalog   Catalog
	playerCmd []string
	mixerCmd  []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	done   chan struct{}
	volume int

	// command builds processes; replaced in tests.
	command func(name string, args ...string) *exec.Cmd
}

// NewExecPlayer creates a player for the tracks in catalog. An empty
// mixerCmd makes SetVolume only record the level.
func NewExecPlayer(catalog Catalog, playerCmd, mixerCmd []string) *ExecPlayer {
	return &ExecPlayer{
		catalog:   catalog,
		playerCmd: playerCmd,
		mixerCmd:  mixerCmd,
		command:   exec.Command,
	}
}

// Play starts track, stopping whatever was playing.
func (p *ExecPlayer) Play(track int) error {
	path := p.catalog.Path(track)
	if path == "" {
		return fmt.Errorf("track %d: not in catalog of %d", track, p.catalog.Len())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	args := append(append([]string(nil), p.playerCmd[1:]...), path)
	cmd := p.command(p.playerCmd[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	p.cmd = cmd
	p.done = done
	return nil
}

// Stop kills the running player and waits for it to exit.
func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *ExecPlayer) stopLocked() {
	if p.cmd == nil {
		return
	}
	select {
	case <-p.done:
	default:
		_ = p.cmd.Process.Kill()
		<-p.done
	}
	p.cmd = nil
	p.done = nil
}

// Stopped reports whether no player process is running.
func (p *ExecPlayer) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return true
	}
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// SetVolume runs the mixer command with the level substituted.
func (p *ExecPlayer) SetVolume(level int) error {
	p.mu.Lock()
	p.volume = level
	p.mu.Unlock()

	if len(p.mixerCmd) == 0 {
		return nil
	}
	v := strconv.Itoa(level)
	args := make([]string, 0, len(p.mixerCmd)-1)
	for _, a := range p.mixerCmd[1:] {
		args = append(args, strings.ReplaceAll(a, volumePlaceholder, v))
	}
	if out, err := p.command(p.mixerCmd[0], args...).CombinedOutput(); err != nil {
		return fmt.Errorf("set volume %d: %w (%s)", level, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Volume returns the last level set.
func (p *ExecPlayer) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}
