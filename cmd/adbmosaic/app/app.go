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

// Package app wires the adbmosaic components from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/carverauto/adbmosaic/pkg/adb"
	"github.com/carverauto/adbmosaic/pkg/config"
	"github.com/carverauto/adbmosaic/pkg/core"
	"github.com/carverauto/adbmosaic/pkg/db"
	"github.com/carverauto/adbmosaic/pkg/devicestore"
	"github.com/carverauto/adbmosaic/pkg/guardian"
	"github.com/carverauto/adbmosaic/pkg/kv"
	"github.com/carverauto/adbmosaic/pkg/lifecycle"
	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/registry"
	"github.com/carverauto/adbmosaic/pkg/scrcpy"
	"github.com/carverauto/adbmosaic/pkg/stream"
)

// Options contains runtime configuration derived from CLI flags.
type Options struct {
	ConfigPath string
	Debug      bool
}

// Runtime holds the wired command service and what must be released on exit.
type Runtime struct {
	Config  *config.Config
	Service *core.Service
	Store   devicestore.Store
	Logger  logger.Logger

	supervisor *stream.Supervisor
	closers    []io.Closer
}

// Build loads the configuration and wires every component.
func Build(ctx context.Context, opts Options) (*Runtime, error) {
	bootLogger, err := lifecycle.CreateComponentLogger("config", nil)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(ctx, opts.ConfigPath, bootLogger)
	if err != nil {
		return nil, err
	}

	if opts.Debug {
		if cfg.Logging == nil {
			cfg.Logging = logger.DefaultConfig()
		}

		cfg.Logging.Debug = true
		cfg.Logging.Level = "debug"
	}

	rt := &Runtime{Config: cfg}

	newLogger := func(component string) (logger.Logger, error) {
		l, err := lifecycle.CreateComponentLogger(component, cfg.Logging)
		if err != nil {
			return nil, err
		}

		if c, ok := l.(io.Closer); ok {
			rt.closers = append(rt.closers, c)
		}

		return l, nil
	}

	mainLogger, err := newLogger("adbmosaic")
	if err != nil {
		return nil, err
	}

	rt.Logger = mainLogger

	if err := rt.wire(ctx, newLogger); err != nil {
		_ = rt.Close(ctx)

		return nil, err
	}

	return rt, nil
}

func (rt *Runtime) wire(ctx context.Context, newLogger func(string) (logger.Logger, error)) error {
	cfg := rt.Config

	loggers := make(map[string]logger.Logger)

	for _, component := range []string{"adb", "store", "registry", "guardian", "stream", "core"} {
		l, err := newLogger(component)
		if err != nil {
			return err
		}

		loggers[component] = l
	}

	client := adb.NewClient(adb.Config{
		Path:            cfg.ADBPath,
		CommandTimeout:  cfg.Probe.CommandTimeout.Std(),
		WirelessPort:    cfg.Wireless.Port,
		WirelessSettle:  cfg.Timing.WirelessSettle.Std(),
		ConnectAttempts: cfg.Wireless.ConnectAttempts,
		ConnectBackoff:  cfg.Wireless.ConnectBackoff.Std(),
	}, nil, loggers["adb"])

	store, err := rt.openStore(ctx, loggers["store"])
	if err != nil {
		return err
	}

	rt.Store = store

	engine := registry.New(client, store, registry.Config{
		AutoPromote:      cfg.Registry.AutoPromote,
		ProbeConcurrency: cfg.Probe.Concurrency,
	}, loggers["registry"])

	guard := guardian.New(guardian.GopsutilProcessTable{}, "", loggers["guardian"])
	launcher := scrcpy.NewExecLauncher(cfg.ScrcpyPath, 0, loggers["stream"])

	rt.supervisor = stream.NewSupervisor(launcher, guard, stream.Config{
		StartSettle:      cfg.Timing.StreamStartSettle.Std(),
		StopSettle:       cfg.Timing.StopSettle.Std(),
		ExitCleanupDelay: cfg.Timing.ExitCleanupDelay.Std(),
	}, loggers["stream"])

	rt.Service = core.NewService(core.Deps{
		Probe:    client,
		Registry: engine,
		Streams:  rt.supervisor,
		Mirror:   launcher,
		Starter:  client,
	}, core.Config{
		WirelessPort:    cfg.Wireless.Port,
		MosaicLaunchGap: cfg.Timing.MosaicLaunchGap.Std(),
		Screen:          cfg.Mosaic.Screen(),
		MaxFPS:          cfg.Mosaic.MaxFPS,
		BitrateKbps:     cfg.Mosaic.BitrateKbps,
	}, loggers["core"])

	return rt.Service.Start(ctx)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore builds the configured device persistence backend.
func (rt *Runtime) openStore(ctx context.Context, log logger.Logger) (devicestore.Store, error) {
	cfg := rt.Config.Store

	switch cfg.Backend {
	case config.StoreBackendLocal:
		localStore, err := kv.NewLocalNatsStore(ctx, cfg.Local.Dir, cfg.Local.Bucket, 0)
		if err != nil {
			return nil, fmt.Errorf("open local device store: %w", err)
		}

		rt.closers = append(rt.closers, localStore)

		log.Debug().Str("dir", cfg.Local.Dir).Msg("Using local device store")

		return devicestore.NewKVStore(localStore, log), nil
	case config.StoreBackendNATS:
		natsStore, err := kv.NewNatsStore(ctx, cfg.NATS.URL, cfg.NATS.Bucket, cfg.NATS.TTL.Std())
		if err != nil {
			return nil, fmt.Errorf("open nats device store: %w", err)
		}

		rt.closers = append(rt.closers, natsStore)

		log.Info().Str("url", cfg.NATS.URL).Str("bucket", cfg.NATS.Bucket).Msg("Using NATS JetStream device store")

		return devicestore.NewKVStore(natsStore, log), nil
	case config.StoreBackendPostgres:
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, err
		}

		rt.closers = append(rt.closers, closerFunc(func() error {
			pool.Close()

			return nil
		}))

		store, err := db.NewPostgresDeviceStore(pool, cfg.Postgres.Table, log)
		if err != nil {
			return nil, err
		}

		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		return store, nil
	default:
		log.Warn().Msg("Using in-memory device store; devices are forgotten on exit")

		return devicestore.NewKVStore(kv.NewMemoryStore(), log), nil
	}
}

const shutdownTimeout = 10 * time.Second

// Close stops every stream and releases the store and log outputs.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error

	if rt.supervisor != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		if err := rt.supervisor.Close(stopCtx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}

	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
