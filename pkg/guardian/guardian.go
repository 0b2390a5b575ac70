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

// Package guardian protects the long-lived adb server process while reaping
// the stray adb clients that mirroring sessions leave behind.
package guardian

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/carverauto/adbmosaic/pkg/logger"
)

const defaultProcessName = "adb"

// KillFailure is a pid the cleanup pass could not terminate.
type KillFailure struct {
	PID int32
	Err error
}

// CleanupReport describes one cleanup pass.
type CleanupReport struct {
	PassID    string
	Protected int32
	Killed    []int32
	Failures  []KillFailure
	// Skipped is set when another pass was already running.
	Skipped bool
}

// Guardian remembers the adb server pid and kills every other adb process on
// demand.
type Guardian struct {
	table  ProcessTable
	name   string
	self   int32
	logger logger.Logger

	mu        sync.Mutex
	protected int32

	busy atomic.Bool
}

// New returns a guardian for processes named name ("adb" when empty).
func New(table ProcessTable, name string, log logger.Logger) *Guardian {
	if name == "" {
		name = defaultProcessName
	}

	return &Guardian{
		table:  table,
		name:   name,
		self:   int32(os.Getpid()), //nolint:gosec // pids fit in int32
		logger: log,
	}
}

// IdentifyProtected records the lowest adb pid as the protected daemon. It is
// idempotent until Reset, except that a recorded pid that has since exited is
// replaced.
func (g *Guardian) IdentifyProtected(ctx context.Context) (int32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.identifyLocked(ctx)
}

func (g *Guardian) identifyLocked(ctx context.Context) (int32, error) {
	if g.protected != 0 {
		alive, err := g.table.Exists(ctx, g.protected)
		if err == nil && alive {
			return g.protected, nil
		}

		g.logger.Info().Int32("pid", g.protected).Msg("Protected adb daemon is gone, re-identifying")

		g.protected = 0
	}

	pids, err := g.table.FindByName(ctx, g.name)
	if err != nil {
		return 0, fmt.Errorf("find %s processes: %w", g.name, err)
	}

	var lowest int32

	for _, pid := range pids {
		if pid == g.self {
			continue
		}

		if lowest == 0 || pid < lowest {
			lowest = pid
		}
	}

	if lowest == 0 {
		return 0, ErrDaemonNotRunning
	}

	g.protected = lowest

	g.logger.Debug().Int32("pid", lowest).Msg("Protected adb daemon identified")

	return lowest, nil
}

// Protected returns the recorded daemon pid, or 0.
func (g *Guardian) Protected() int32 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.protected
}

// Reset forgets the protected pid.
func (g *Guardian) Reset() {
	g.mu.Lock()
	g.protected = 0
	g.mu.Unlock()
}

// Cleanup kills every adb process except the protected daemon and this
// process. A call that overlaps a running pass is dropped and reported as
// skipped.
func (g *Guardian) Cleanup(ctx context.Context) (*CleanupReport, error) {
	if !g.busy.CompareAndSwap(false, true) {
		recordCleanup(ctx, outcomeSkipped)

		return &CleanupReport{Skipped: true}, nil
	}
	defer g.busy.Store(false)

	report := &CleanupReport{PassID: uuid.NewString()}
	log := g.logger.With().Str("pass_id", report.PassID).Logger()

	g.mu.Lock()
	protected, err := g.identifyLocked(ctx)
	g.mu.Unlock()

	if err != nil {
		log.Debug().Err(err).Msg("No protected adb daemon")
	}

	report.Protected = protected

	pids, err := g.table.FindByName(ctx, g.name)
	if err != nil {
		recordCleanup(ctx, outcomeError)

		return report, fmt.Errorf("find %s processes: %w", g.name, err)
	}

	for _, pid := range pids {
		if pid == protected || pid == g.self {
			continue
		}

		if err := g.table.Kill(ctx, pid); err != nil {
			log.Warn().Err(err).Int32("pid", pid).Msg("Failed to kill stray adb process")

			report.Failures = append(report.Failures, KillFailure{PID: pid, Err: err})

			continue
		}

		report.Killed = append(report.Killed, pid)
	}

	recordCleanup(ctx, outcomeOK)
	recordKills(ctx, len(report.Killed), len(report.Failures))

	if len(report.Killed) > 0 || len(report.Failures) > 0 {
		log.Info().
			Int32("protected", protected).
			Int("killed", len(report.Killed)).
			Int("failed", len(report.Failures)).
			Msg("Cleaned up stray adb processes")
	}

	return report, nil
}
