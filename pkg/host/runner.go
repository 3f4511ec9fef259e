// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package host drives a machine at a fixed instruction rate and ticks its
// timers. Every call into the machine happens on the Run goroutine.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
)

const (
	DEFAULT_CLOCK_HZ = 500
	DEFAULT_TIMER_HZ = 60
)

var ErrNotRunning = errors.New("runner is not running")

type Config struct {
	ClockHz int
	TimerHz int
}

func DefaultConfig() Config {
	return Config{ClockHz: DEFAULT_CLOCK_HZ, TimerHz: DEFAULT_TIMER_HZ}
}

// Framebuffer is the part of the display the runner polls once per tick.
type Framebuffer interface {
	Dirty() bool
	ClearDirty()
}

// FaultError is returned by Run when the program violates a memory or stack
// bound.
type FaultError struct {
	PC    uint16
	Fault machine.Fault
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("machine fault at %#04x: %v", e.PC, e.Fault)
}

func (e *FaultError) Unwrap() error {
	return e.Fault
}

type Runner struct {
	Machine *machine.Machine
	Config  Config
	Screen  Framebuffer
	Logger  *log.Logger

	// OnFrame is called after a tick that changed the framebuffer.
	OnFrame func()

	// OnSound is called when the sound timer starts or stops.
	OnSound func(on bool)

	paused  atomic.Bool
	running atomic.Bool
	pending atomic.Int32
	steps   chan struct{}
	calls   chan func(*machine.Machine)
	sound   bool

	mu        sync.Mutex
	interrupt context.CancelFunc
}

func New(mc *machine.Machine, cfg Config) *Runner {
	if cfg.ClockHz <= 0 {
		cfg.ClockHz = DEFAULT_CLOCK_HZ
	}

	if cfg.TimerHz <= 0 {
		cfg.TimerHz = DEFAULT_TIMER_HZ
	}

	return &Runner{
		Machine: mc,
		Config:  cfg,
		steps:   make(chan struct{}, 1),
		calls:   make(chan func(*machine.Machine)),
	}
}

// Pause stops the clock. An instruction waiting for a key is abandoned and
// retried once the runner resumes.
func (r *Runner) Pause() {
	r.paused.Store(true)
	r.interruptStep()
}

func (r *Runner) Resume() {
	r.paused.Store(false)
}

func (r *Runner) Paused() bool {
	return r.paused.Load()
}

// StepOnce executes a single instruction while paused. Requests made while
// one is still pending are dropped.
func (r *Runner) StepOnce() {
	select {
	case r.steps <- struct{}{}:
	default:
	}
}

// Do runs fn on the Run goroutine and waits for it to finish. A pending key
// wait is interrupted so fn runs promptly.
func (r *Runner) Do(ctx context.Context, fn func(mc *machine.Machine)) error {
	if !r.running.Load() {
		return ErrNotRunning
	}

	done := make(chan struct{})
	call := func(mc *machine.Machine) {
		defer close(done)
		fn(mc)
	}

	r.pending.Add(1)
	r.interruptStep()

	select {
	case r.calls <- call:
		r.pending.Add(-1)
	case <-ctx.Done():
		r.pending.Add(-1)
		return ctx.Err()
	}

	<-done
	return nil
}

// Run blocks until ctx is done or the machine faults. Cancelling ctx is a
// clean shutdown and returns nil, even while Fx0A is waiting for a key.
func (r *Runner) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)

	ticker := time.NewTicker(time.Second / time.Duration(r.Config.TimerHz))
	defer ticker.Stop()

	perTick := r.Config.ClockHz / r.Config.TimerHz
	if perTick < 1 {
		perTick = 1
	}

	if r.Logger != nil {
		r.Logger.Debug("Runner started",
			log.Int("clock_hz", r.Config.ClockHz),
			log.Int("timer_hz", r.Config.TimerHz))
	}

	for {
		select {
		case <-ctx.Done():
			return r.stop(nil)

		case call := <-r.calls:
			call(r.Machine)

		case <-r.steps:
			if !r.Paused() {
				continue
			}

			if _, err := r.step(ctx, false); err != nil {
				return r.stop(err)
			}

			r.frame()

		case <-ticker.C:
			if r.Paused() {
				continue
			}

			for i := 0; i < perTick && ctx.Err() == nil && !r.yielding(); i++ {
				interrupted, err := r.step(ctx, true)
				if err != nil {
					return r.stop(err)
				}
				if interrupted {
					break
				}
			}

			r.Machine.State.DecrementTimers()
			r.frame()
		}
	}
}

func (r *Runner) stop(err error) error {
	if r.sound {
		r.sound = false
		if r.OnSound != nil {
			r.OnSound(false)
		}
	}

	if r.Logger != nil {
		if err != nil {
			r.Logger.Error("Runner stopped", log.Err(err))
		} else {
			r.Logger.Debug("Runner stopped")
		}
	}

	return err
}

func (r *Runner) frame() {
	sound := r.Machine.State.Sound > 0
	if sound != r.sound {
		r.sound = sound
		if r.OnSound != nil {
			r.OnSound(sound)
		}
	}

	if r.Screen != nil && r.Screen.Dirty() {
		r.Screen.ClearDirty()
		if r.OnFrame != nil {
			r.OnFrame()
		}
	}
}

// yielding reports whether the tick loop should hand control back to Run.
func (r *Runner) yielding() bool {
	return r.pending.Load() > 0 || r.Paused()
}

func (r *Runner) interruptStep() {
	r.mu.Lock()
	if r.interrupt != nil {
		r.interrupt()
	}
	r.mu.Unlock()
}

// step executes one instruction. interrupted is set when a key wait was
// abandoned for a Do call or a pause; PC is left on the waiting instruction.
func (r *Runner) step(ctx context.Context, ticking bool) (interrupted bool, err error) {
	pc := r.Machine.State.Program

	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	r.interrupt = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.interrupt = nil
		r.mu.Unlock()
	}()

	// Requests that arrived before the cancel func was published
	if r.pending.Load() > 0 || (ticking && r.Paused()) {
		cancel()
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			fault, ok := machine.AsFault(recovered)
			if !ok {
				panic(recovered)
			}
			err = &FaultError{PC: pc, Fault: fault}
		}
	}()

	err = r.Machine.Step(stepCtx)

	if err != nil && stepCtx.Err() != nil {
		// Interrupted key wait; Run sees ctx.Done or the request next
		return true, nil
	}

	return false, err
}
