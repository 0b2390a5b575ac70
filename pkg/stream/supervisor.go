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

// Package stream supervises one mirroring process per device identity.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/adbmosaic/pkg/guardian"
	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
	"github.com/carverauto/adbmosaic/pkg/scrcpy"
)

// Cleaner protects the adb daemon and reaps stray adb processes.
type Cleaner interface {
	IdentifyProtected(ctx context.Context) (int32, error)
	Cleanup(ctx context.Context) (*guardian.CleanupReport, error)
}

// Config holds the supervisor's settle delays.
type Config struct {
	StartSettle      time.Duration
	StopSettle       time.Duration
	ExitCleanupDelay time.Duration
}

// Session is one running mirroring process.
type Session struct {
	ID       string
	Identity string
	Target   string
	Args     []string
	Started  time.Time
	Process  scrcpy.Process
}

// Supervisor owns the identity to session map. At most one session exists
// per identity, and a slot is reserved before Start blocks on anything.
type Supervisor struct {
	launcher scrcpy.Launcher
	cleaner  Cleaner
	cfg      Config
	logger   logger.Logger

	mu           sync.Mutex
	sessions     map[string]*Session
	reserved     map[string]struct{}
	cleanupTimer *time.Timer
	// cleanupOwed is set while a deferred cleanup waits on pending starts.
	cleanupOwed bool
	onExit      func(identity string)
	closed      bool
}

// NewSupervisor creates a supervisor.
func NewSupervisor(launcher scrcpy.Launcher, cleaner Cleaner, cfg Config, log logger.Logger) *Supervisor {
	return &Supervisor{
		launcher: launcher,
		cleaner:  cleaner,
		cfg:      cfg,
		logger:   log,
		sessions: make(map[string]*Session),
		reserved: make(map[string]struct{}),
	}
}

// OnExit registers fn to be called when a mirroring process exits on its own.
func (s *Supervisor) OnExit(fn func(identity string)) {
	s.mu.Lock()
	s.onExit = fn
	s.mu.Unlock()
}

// Start spawns a mirroring process for identity.
func (s *Supervisor) Start(ctx context.Context, identity string, opts models.StreamOptions) error {
	if identity == "" {
		return ErrEmptyIdentity
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return ErrClosed
	}

	if s.activeLocked(identity) {
		s.mu.Unlock()

		return fmt.Errorf("%w: %s", ErrStreamActive, identity)
	}

	s.reserved[identity] = struct{}{}
	if s.cancelCleanupLocked() {
		s.cleanupOwed = true
	}
	s.mu.Unlock()

	if _, err := s.cleaner.IdentifyProtected(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("Could not identify adb daemon before stream start")
	}

	if err := sleepCtx(ctx, s.cfg.StartSettle); err != nil {
		s.release(identity)

		return err
	}

	argv := BuildArgs(identity, opts)

	proc, err := s.launcher.Launch(ctx, identity, argv)
	if err != nil {
		s.release(identity)
		recordStart(ctx, false)

		return fmt.Errorf("%w: %s: %w", ErrSpawnFailed, identity, err)
	}

	session := &Session{
		ID:       uuid.NewString(),
		Identity: identity,
		Target:   argv[len(argv)-1],
		Args:     argv,
		Started:  time.Now(),
		Process:  proc,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.release(identity)
		recordStart(ctx, false)

		if err := proc.Terminate(); err != nil {
			s.logger.Warn().Err(err).Str("identity", identity).Msg("Failed to terminate stream started during shutdown")
		}

		return ErrClosed
	}

	delete(s.reserved, identity)
	s.sessions[identity] = session
	s.cleanupOwed = false
	s.mu.Unlock()

	go s.watch(session)

	recordStart(ctx, true)

	s.logger.Info().
		Str("identity", identity).
		Str("session_id", session.ID).
		Str("target", session.Target).
		Int("pid", proc.Pid()).
		Msg("Stream started")

	return nil
}

func (s *Supervisor) activeLocked(identity string) bool {
	if _, ok := s.sessions[identity]; ok {
		return true
	}

	_, ok := s.reserved[identity]

	return ok
}

// release drops a reservation and reschedules a cleanup the aborted start
// had displaced.
func (s *Supervisor) release(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reserved, identity)

	if s.cleanupOwed && s.idleLocked() {
		s.cleanupOwed = false
		s.scheduleCleanupLocked()
	}
}

func (s *Supervisor) idleLocked() bool {
	return len(s.sessions) == 0 && len(s.reserved) == 0 && !s.closed
}

// watch deregisters a session whose process exited on its own and schedules
// a deferred cleanup once no streams remain.
func (s *Supervisor) watch(session *Session) {
	err := session.Process.Wait()

	s.mu.Lock()

	natural := s.sessions[session.Identity] == session
	if natural {
		delete(s.sessions, session.Identity)

		switch {
		case s.idleLocked():
			s.scheduleCleanupLocked()
		case len(s.sessions) == 0 && !s.closed:
			s.cleanupOwed = true
		}
	}

	onExit := s.onExit
	s.mu.Unlock()

	if !natural {
		return
	}

	recordExit(context.Background())

	s.logger.Info().
		Err(err).
		Str("identity", session.Identity).
		Str("session_id", session.ID).
		Msg("Stream process exited")

	if onExit != nil {
		onExit(session.Identity)
	}
}

func (s *Supervisor) scheduleCleanupLocked() {
	s.cancelCleanupLocked()

	var timer *time.Timer

	timer = time.AfterFunc(s.cfg.ExitCleanupDelay, func() {
		s.mu.Lock()
		current := s.cleanupTimer == timer
		if current {
			s.cleanupTimer = nil
		}
		s.mu.Unlock()

		if current {
			s.cleanup(context.Background())
		}
	})

	s.cleanupTimer = timer
}

// cancelCleanupLocked stops a pending deferred cleanup and reports whether
// one was pending.
func (s *Supervisor) cancelCleanupLocked() bool {
	if s.cleanupTimer == nil {
		return false
	}

	s.cleanupTimer.Stop()
	s.cleanupTimer = nil

	return true
}

// Stop terminates the stream for identity, waits for the transport to settle
// and reaps stray adb processes.
func (s *Supervisor) Stop(ctx context.Context, identity string) error {
	err := s.terminate(identity)
	if errors.Is(err, ErrNoActiveStream) {
		return err
	}

	s.settle(ctx, s.cfg.StopSettle)
	s.cleanup(ctx)

	return err
}

func (s *Supervisor) terminate(identity string) error {
	s.mu.Lock()
	session, ok := s.sessions[identity]
	if ok {
		delete(s.sessions, identity)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoActiveStream, identity)
	}

	recordStop(context.Background())

	if err := session.Process.Terminate(); err != nil {
		s.logger.Warn().Err(err).Str("identity", identity).Msg("Failed to terminate stream process")

		return fmt.Errorf("terminate stream %s: %w", identity, err)
	}

	s.logger.Info().Str("identity", identity).Str("session_id", session.ID).Msg("Stream stopped")

	return nil
}

// StopAll stops every stream. Failures are joined; the final cleanup only
// runs when every stop succeeded.
func (s *Supervisor) StopAll(ctx context.Context) error {
	var errs []error

	for _, identity := range s.ListActive() {
		if err := s.terminate(identity); err != nil && !errors.Is(err, ErrNoActiveStream) {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.settle(ctx, s.cfg.StopSettle)
	s.cleanup(ctx)

	return nil
}

// ListActive returns the identities with a running stream, sorted.
func (s *Supervisor) ListActive() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.sessions))
	for identity := range s.sessions {
		out = append(out, identity)
	}

	sort.Strings(out)

	return out
}

// Session returns the running session for identity.
func (s *Supervisor) Session(identity string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[identity]

	return session, ok
}

// Close stops every stream. With none running, it only runs a deferred
// cleanup that was still pending.
func (s *Supervisor) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	pending := s.cancelCleanupLocked() || s.cleanupOwed
	s.cleanupOwed = false
	idle := len(s.sessions) == 0
	s.mu.Unlock()

	if idle {
		if pending {
			s.cleanup(ctx)
		}

		return nil
	}

	return s.StopAll(ctx)
}

func (s *Supervisor) cleanup(ctx context.Context) {
	report, err := s.cleaner.Cleanup(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("adb cleanup failed")

		return
	}

	if report.Skipped {
		s.logger.Debug().Msg("adb cleanup already running, skipped")
	}
}

func (s *Supervisor) settle(ctx context.Context, d time.Duration) {
	// Settling is best effort; a cancelled context still cleans up.
	_ = sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
