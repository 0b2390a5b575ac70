/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

//go:generate mockgen -destination=mock_scrcpy.go -package=scrcpy github.com/carverauto/adbmosaic/pkg/scrcpy Launcher,Process

// Package scrcpy launches and terminates scrcpy mirroring processes.
package scrcpy

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/carverauto/adbmosaic/pkg/logger"
)

const defaultKillGrace = 3 * time.Second

var errNotStarted = errors.New("process not started")

// Process is a running mirroring process.
type Process interface {
	Pid() int
	// Terminate asks the process group to exit and escalates to a kill
	// when it has not exited within the grace period.
	Terminate() error
	// Wait blocks until the process exits. It is safe to call more than once.
	Wait() error
}

// Launcher starts mirroring processes.
type Launcher interface {
	Launch(ctx context.Context, identity string, argv []string) (Process, error)
	// Available reports whether the mirroring tool can be executed.
	Available(ctx context.Context) bool
}

// ExecLauncher starts scrcpy with os/exec, detached from our stdio and in its
// own process group so helpers it spawns are signalled with it.
type ExecLauncher struct {
	path      string
	killGrace time.Duration
	logger    logger.Logger
}

// NewExecLauncher returns a launcher for the scrcpy binary at path.
func NewExecLauncher(path string, killGrace time.Duration, log logger.Logger) *ExecLauncher {
	if path == "" {
		path = "scrcpy"
	}

	if killGrace <= 0 {
		killGrace = defaultKillGrace
	}

	return &ExecLauncher{path: path, killGrace: killGrace, logger: log}
}

// Launch starts the process and returns immediately. The process is not tied
// to ctx; it lives until terminated or until it exits on its own.
func (l *ExecLauncher) Launch(_ context.Context, identity string, argv []string) (Process, error) {
	cmd := exec.Command(l.path, argv...)
	cmd.SysProcAttr = newSysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s for %s: %w", l.path, identity, err)
	}

	l.logger.Debug().
		Str("identity", identity).
		Int("pid", cmd.Process.Pid).
		Strs("argv", argv).
		Msg("Started mirroring process")

	return &execProcess{
		cmd:   cmd,
		grace: l.killGrace,
		done:  make(chan struct{}),
	}, nil
}

// Available runs `scrcpy --version` and reports whether it exited 0.
func (l *ExecLauncher) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := exec.CommandContext(ctx, l.path, "--version").Run(); err != nil {
		l.logger.Debug().Err(err).Str("path", l.path).Msg("Mirroring tool unavailable")
		return false
	}

	return true
}

type execProcess struct {
	cmd   *exec.Cmd
	grace time.Duration

	waitOnce sync.Once
	waitErr  error
	done     chan struct{}
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		close(p.done)
	})

	<-p.done

	return p.waitErr
}

func (p *execProcess) Terminate() error {
	if p.cmd.Process == nil {
		return errNotStarted
	}

	select {
	case <-p.done:
		return nil
	default:
	}

	if err := signalGroup(p.cmd.Process, false); err != nil {
		return killGroup(p.cmd.Process)
	}

	timer := time.NewTimer(p.grace)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
		return killGroup(p.cmd.Process)
	}
}
