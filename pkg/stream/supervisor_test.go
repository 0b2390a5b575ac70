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

package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/adbmosaic/pkg/guardian"
	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
	"github.com/carverauto/adbmosaic/pkg/scrcpy"
)

type fakeProcess struct {
	pid          int
	done         chan struct{}
	once         sync.Once
	terminateErr error
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, done: make(chan struct{})}
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Terminate() error {
	p.exit()

	return p.terminateErr
}

func (p *fakeProcess) Wait() error {
	<-p.done

	return nil
}

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.done) })
}

type fakeCleaner struct {
	identified atomic.Int32
	cleanups   atomic.Int32
	cleaned    chan struct{}
}

func newFakeCleaner() *fakeCleaner {
	return &fakeCleaner{cleaned: make(chan struct{}, 16)}
}

func (c *fakeCleaner) IdentifyProtected(context.Context) (int32, error) {
	c.identified.Add(1)

	return 100, nil
}

func (c *fakeCleaner) Cleanup(context.Context) (*guardian.CleanupReport, error) {
	c.cleanups.Add(1)
	c.cleaned <- struct{}{}

	return &guardian.CleanupReport{}, nil
}

func newTestSupervisor(t *testing.T, cfg Config) (*Supervisor, *scrcpy.MockLauncher, *fakeCleaner) {
	t.Helper()

	ctrl := gomock.NewController(t)
	launcher := scrcpy.NewMockLauncher(ctrl)
	cleaner := newFakeCleaner()

	return NewSupervisor(launcher, cleaner, cfg, logger.NewTestLogger()), launcher, cleaner
}

func TestStart_SecondStartForSameIdentityFails(t *testing.T) {
	s, launcher, cleaner := newTestSupervisor(t, Config{})
	ctx := context.Background()

	proc := newFakeProcess(4242)
	launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(proc, nil).Times(1)

	require.NoError(t, s.Start(ctx, "A", models.StreamOptions{}))

	err := s.Start(ctx, "A", models.StreamOptions{})
	require.ErrorIs(t, err, ErrStreamActive)

	assert.Equal(t, []string{"A"}, s.ListActive())
	assert.Equal(t, int32(1), cleaner.identified.Load())

	session, ok := s.Session("A")
	require.True(t, ok)
	assert.Equal(t, "A", session.Target)
	assert.NotEmpty(t, session.ID)

	require.NoError(t, s.Stop(ctx, "A"))
	assert.Empty(t, s.ListActive())
	assert.Equal(t, int32(1), cleaner.cleanups.Load())
}

func TestStart_SpawnFailureLeavesNothingRegistered(t *testing.T) {
	s, launcher, _ := newTestSupervisor(t, Config{})
	ctx := context.Background()

	launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(nil, errors.New("exec: not found"))

	err := s.Start(ctx, "A", models.StreamOptions{})
	require.ErrorIs(t, err, ErrSpawnFailed)
	assert.Empty(t, s.ListActive())

	proc := newFakeProcess(1)
	launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(proc, nil)

	require.NoError(t, s.Start(ctx, "A", models.StreamOptions{}))
	require.NoError(t, s.Close(ctx))
}

func TestStart_PassesTargetLast(t *testing.T) {
	s, launcher, _ := newTestSupervisor(t, Config{})
	ctx := context.Background()

	var got []string

	launcher.EXPECT().Launch(gomock.Any(), "SN123", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, argv []string) (scrcpy.Process, error) {
			got = argv

			return newFakeProcess(7), nil
		})

	require.NoError(t, s.Start(ctx, "SN123", models.StreamOptions{Target: "10.0.0.5:5555"}))
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, []string{"--serial", "10.0.0.5:5555"}, got[len(got)-2:])

	require.NoError(t, s.Close(ctx))
}

func TestStop_AbsentIdentityHasNoSideEffects(t *testing.T) {
	s, _, cleaner := newTestSupervisor(t, Config{})

	err := s.Stop(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNoActiveStream)
	assert.Zero(t, cleaner.cleanups.Load())
}

func TestWatch_NaturalExitDeregistersAndSchedulesCleanup(t *testing.T) {
	s, launcher, cleaner := newTestSupervisor(t, Config{ExitCleanupDelay: 10 * time.Millisecond})
	ctx := context.Background()

	exited := make(chan string, 1)
	s.OnExit(func(identity string) { exited <- identity })

	proc := newFakeProcess(11)
	launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(proc, nil)

	require.NoError(t, s.Start(ctx, "A", models.StreamOptions{}))

	proc.exit()

	select {
	case id := <-exited:
		assert.Equal(t, "A", id)
	case <-time.After(2 * time.Second):
		t.Fatal("exit hook not called")
	}

	assert.Empty(t, s.ListActive())

	select {
	case <-cleaner.cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("deferred cleanup did not run")
	}
}

func TestStart_CancelsPendingCleanup(t *testing.T) {
	s, launcher, cleaner := newTestSupervisor(t, Config{ExitCleanupDelay: time.Hour})
	ctx := context.Background()

	exited := make(chan string, 1)
	s.OnExit(func(identity string) { exited <- identity })

	first := newFakeProcess(1)
	launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(first, nil)
	require.NoError(t, s.Start(ctx, "A", models.StreamOptions{}))

	first.exit()
	<-exited

	s.mu.Lock()
	pending := s.cleanupTimer != nil
	s.mu.Unlock()
	require.True(t, pending)

	launcher.EXPECT().Launch(gomock.Any(), "B", gomock.Any()).Return(newFakeProcess(2), nil)
	require.NoError(t, s.Start(ctx, "B", models.StreamOptions{}))

	s.mu.Lock()
	pending = s.cleanupTimer != nil
	s.mu.Unlock()
	assert.False(t, pending)
	assert.Zero(t, cleaner.cleanups.Load())

	require.NoError(t, s.Close(ctx))
}

func TestStart_FailedSpawnReschedulesDisplacedCleanup(t *testing.T) {
	s, launcher, cleaner := newTestSupervisor(t, Config{ExitCleanupDelay: 50 * time.Millisecond})
	ctx := context.Background()

	exited := make(chan string, 1)
	s.OnExit(func(identity string) { exited <- identity })

	first := newFakeProcess(1)
	launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(first, nil)
	require.NoError(t, s.Start(ctx, "A", models.StreamOptions{}))

	first.exit()
	<-exited

	launcher.EXPECT().Launch(gomock.Any(), "B", gomock.Any()).Return(nil, errors.New("exec: not found"))
	require.ErrorIs(t, s.Start(ctx, "B", models.StreamOptions{}), ErrSpawnFailed)
	assert.Empty(t, s.ListActive())

	select {
	case <-cleaner.cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup displaced by the failed start never ran")
	}

	assert.Equal(t, int32(1), cleaner.cleanups.Load())
}

func TestStart_CancelledSettleReschedulesDisplacedCleanup(t *testing.T) {
	s, launcher, cleaner := newTestSupervisor(t, Config{ExitCleanupDelay: 50 * time.Millisecond})

	exited := make(chan string, 1)
	s.OnExit(func(identity string) { exited <- identity })

	first := newFakeProcess(1)
	launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(first, nil)
	require.NoError(t, s.Start(context.Background(), "A", models.StreamOptions{}))

	first.exit()
	<-exited

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Start(ctx, "B", models.StreamOptions{}), context.Canceled)

	select {
	case <-cleaner.cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup displaced by the cancelled start never ran")
	}
}

func TestClose_DuringStartSettleTerminatesLateProcess(t *testing.T) {
	s, launcher, _ := newTestSupervisor(t, Config{StartSettle: 100 * time.Millisecond})

	proc := newFakeProcess(9)
	launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(proc, nil).MaxTimes(1)

	started := make(chan error, 1)

	go func() {
		started <- s.Start(context.Background(), "A", models.StreamOptions{})
	}()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		_, ok := s.reserved["A"]

		return ok
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, s.Close(context.Background()))

	select {
	case err := <-started:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("start did not return")
	}

	assert.Empty(t, s.ListActive())

	select {
	case <-proc.done:
	default:
		t.Fatal("process launched after close was left running")
	}
}

func TestStopAll(t *testing.T) {
	t.Run("all succeed runs one cleanup", func(t *testing.T) {
		s, launcher, cleaner := newTestSupervisor(t, Config{})
		ctx := context.Background()

		launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(newFakeProcess(1), nil)
		launcher.EXPECT().Launch(gomock.Any(), "B", gomock.Any()).Return(newFakeProcess(2), nil)

		require.NoError(t, s.Start(ctx, "A", models.StreamOptions{}))
		require.NoError(t, s.Start(ctx, "B", models.StreamOptions{}))
		assert.Equal(t, []string{"A", "B"}, s.ListActive())

		require.NoError(t, s.StopAll(ctx))
		assert.Empty(t, s.ListActive())
		assert.Equal(t, int32(1), cleaner.cleanups.Load())
	})

	t.Run("failure is joined and skips cleanup", func(t *testing.T) {
		s, launcher, cleaner := newTestSupervisor(t, Config{})
		ctx := context.Background()

		bad := newFakeProcess(2)
		bad.terminateErr = errors.New("permission denied")

		launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(newFakeProcess(1), nil)
		launcher.EXPECT().Launch(gomock.Any(), "B", gomock.Any()).Return(bad, nil)

		require.NoError(t, s.Start(ctx, "A", models.StreamOptions{}))
		require.NoError(t, s.Start(ctx, "B", models.StreamOptions{}))

		err := s.StopAll(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "B")
		assert.Empty(t, s.ListActive())
		assert.Zero(t, cleaner.cleanups.Load())
	})
}

func TestStart_AfterCloseIsRejected(t *testing.T) {
	s, _, _ := newTestSupervisor(t, Config{})

	require.NoError(t, s.Close(context.Background()))
	require.ErrorIs(t, s.Start(context.Background(), "A", models.StreamOptions{}), ErrClosed)
}

func TestClose_IdleSkipsCleanup(t *testing.T) {
	s, _, cleaner := newTestSupervisor(t, Config{StopSettle: time.Hour})

	require.NoError(t, s.Close(context.Background()))
	assert.Zero(t, cleaner.cleanups.Load())
}

func TestClose_RunsPendingDeferredCleanup(t *testing.T) {
	s, launcher, cleaner := newTestSupervisor(t, Config{ExitCleanupDelay: time.Hour})
	ctx := context.Background()

	exited := make(chan string, 1)
	s.OnExit(func(identity string) { exited <- identity })

	proc := newFakeProcess(1)
	launcher.EXPECT().Launch(gomock.Any(), "A", gomock.Any()).Return(proc, nil)
	require.NoError(t, s.Start(ctx, "A", models.StreamOptions{}))

	proc.exit()
	<-exited

	require.NoError(t, s.Close(ctx))
	assert.Equal(t, int32(1), cleaner.cleanups.Load())
}
