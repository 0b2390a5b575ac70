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

// Package config loads adbmosaic settings from a file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
)

const (
	// StoreBackendLocal keeps devices in an embedded JetStream store on disk.
	StoreBackendLocal    = "local"
	// StoreBackendMemory keeps devices only for the life of the process.
	StoreBackendMemory   = "memory"
	StoreBackendNATS     = "nats"
	StoreBackendPostgres = "postgres"

	defaultWirelessPort = 5555
	defaultNATSBucket   = "adbmosaic-devices"
)

// Config is the full runtime configuration.
type Config struct {
	ADBPath    string         `json:"adb_path" yaml:"adb_path"`
	ScrcpyPath string         `json:"scrcpy_path" yaml:"scrcpy_path"`
	Store      StoreConfig    `json:"store" yaml:"store"`
	Timing     TimingConfig   `json:"timing" yaml:"timing"`
	Wireless   WirelessConfig `json:"wireless" yaml:"wireless"`
	Probe      ProbeConfig    `json:"probe" yaml:"probe"`
	Registry   RegistryConfig `json:"registry" yaml:"registry"`
	Mosaic     MosaicConfig   `json:"mosaic" yaml:"mosaic"`
	Logging    *logger.Config `json:"logging" yaml:"logging"`
}

// StoreConfig selects and configures the device persistence backend.
type StoreConfig struct {
	Backend  string                   `json:"backend" yaml:"backend"`
	Local    LocalConfig              `json:"local" yaml:"local"`
	NATS     NATSConfig               `json:"nats" yaml:"nats"`
	Postgres *models.PostgresDatabase `json:"postgres" yaml:"postgres"`
}

// LocalConfig places the embedded store on disk.
type LocalConfig struct {
	Dir    string `json:"dir" yaml:"dir"`
	Bucket string `json:"bucket" yaml:"bucket"`
}

// NATSConfig points at a JetStream key-value bucket.
type NATSConfig struct {
	URL    string          `json:"url" yaml:"url"`
	Bucket string          `json:"bucket" yaml:"bucket"`
	TTL    models.Duration `json:"ttl" yaml:"ttl"`
}

// TimingConfig holds the settle delays used instead of readiness polling.
type TimingConfig struct {
	StreamStartSettle models.Duration `json:"stream_start_settle" yaml:"stream_start_settle"`
	StopSettle        models.Duration `json:"stop_settle" yaml:"stop_settle"`
	ExitCleanupDelay  models.Duration `json:"exit_cleanup_delay" yaml:"exit_cleanup_delay"`
	WirelessSettle    models.Duration `json:"wireless_settle" yaml:"wireless_settle"`
	MosaicLaunchGap   models.Duration `json:"mosaic_launch_gap" yaml:"mosaic_launch_gap"`
}

type WirelessConfig struct {
	Port            int             `json:"port" yaml:"port"`
	ConnectAttempts int             `json:"connect_attempts" yaml:"connect_attempts"`
	ConnectBackoff  models.Duration `json:"connect_backoff" yaml:"connect_backoff"`
}

type ProbeConfig struct {
	CommandTimeout models.Duration `json:"command_timeout" yaml:"command_timeout"`
	Concurrency    int             `json:"concurrency" yaml:"concurrency"`
}

type RegistryConfig struct {
	AutoPromote bool `json:"auto_promote" yaml:"auto_promote"`
}

// MosaicConfig describes the operator screen the mosaic is tiled across.
type MosaicConfig struct {
	ScreenWidth  int `json:"screen_width" yaml:"screen_width"`
	ScreenHeight int `json:"screen_height" yaml:"screen_height"`
	MaxFPS       int `json:"max_fps" yaml:"max_fps"`
	BitrateKbps  int `json:"bitrate_kbps" yaml:"bitrate_kbps"`
}

// Screen returns the configured mosaic area.
func (m MosaicConfig) Screen() models.ScreenSize {
	return models.ScreenSize{Width: m.ScreenWidth, Height: m.ScreenHeight}
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		ADBPath:    "adb",
		ScrcpyPath: "scrcpy",
		Store: StoreConfig{
			Backend: StoreBackendLocal,
			Local: LocalConfig{
				Dir:    DefaultStoreDir(),
				Bucket: defaultNATSBucket,
			},
			NATS: NATSConfig{
				URL:    "nats://127.0.0.1:4222",
				Bucket: defaultNATSBucket,
			},
		},
		Timing: TimingConfig{
			StreamStartSettle: models.Duration(500 * time.Millisecond),
			StopSettle:        models.Duration(500 * time.Millisecond),
			ExitCleanupDelay:  models.Duration(time.Second),
			WirelessSettle:    models.Duration(2 * time.Second),
			MosaicLaunchGap:   models.Duration(500 * time.Millisecond),
		},
		Wireless: WirelessConfig{
			Port:            defaultWirelessPort,
			ConnectAttempts: 3,
			ConnectBackoff:  models.Duration(time.Second),
		},
		Probe: ProbeConfig{
			CommandTimeout: models.Duration(10 * time.Second),
			Concurrency:    4,
		},
		Registry: RegistryConfig{AutoPromote: true},
		Mosaic: MosaicConfig{
			ScreenWidth:  1920,
			ScreenHeight: 1080,
		},
		Logging: logger.DefaultConfig(),
	}
}

// DefaultStoreDir returns <user config dir>/adbmosaic/store, or a
// directory under the working directory when the user config dir is unknown.
func DefaultStoreDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".adbmosaic", "store")
	}

	return filepath.Join(base, "adbmosaic", "store")
}

// Validate checks the configuration for values the services cannot run with.
func (c *Config) Validate() error {
	if c.ADBPath == "" {
		return fmt.Errorf("%w: adb_path", ErrMissingField)
	}

	if c.ScrcpyPath == "" {
		return fmt.Errorf("%w: scrcpy_path", ErrMissingField)
	}

	switch c.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendLocal:
		if c.Store.Local.Dir == "" || c.Store.Local.Bucket == "" {
			return fmt.Errorf("%w: store.local.dir and store.local.bucket", ErrMissingField)
		}
	case StoreBackendNATS:
		if c.Store.NATS.URL == "" || c.Store.NATS.Bucket == "" {
			return fmt.Errorf("%w: store.nats.url and store.nats.bucket", ErrMissingField)
		}
	case StoreBackendPostgres:
		if c.Store.Postgres == nil || c.Store.Postgres.Host == "" || c.Store.Postgres.Database == "" {
			return fmt.Errorf("%w: store.postgres.host and store.postgres.database", ErrMissingField)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreBackend, c.Store.Backend)
	}

	if c.Wireless.Port <= 0 || c.Wireless.Port > 65535 {
		return fmt.Errorf("%w: wireless.port %d", ErrOutOfRange, c.Wireless.Port)
	}

	if c.Wireless.ConnectAttempts < 1 {
		return fmt.Errorf("%w: wireless.connect_attempts %d", ErrOutOfRange, c.Wireless.ConnectAttempts)
	}

	if c.Probe.Concurrency < 1 {
		return fmt.Errorf("%w: probe.concurrency %d", ErrOutOfRange, c.Probe.Concurrency)
	}

	if c.Probe.CommandTimeout < 0 {
		return fmt.Errorf("%w: probe.command_timeout", ErrOutOfRange)
	}

	if c.Mosaic.ScreenWidth <= 0 || c.Mosaic.ScreenHeight <= 0 {
		return fmt.Errorf("%w: mosaic screen %dx%d", ErrOutOfRange, c.Mosaic.ScreenWidth, c.Mosaic.ScreenHeight)
	}

	for name, d := range map[string]models.Duration{
		"stream_start_settle": c.Timing.StreamStartSettle,
		"stop_settle":         c.Timing.StopSettle,
		"exit_cleanup_delay":  c.Timing.ExitCleanupDelay,
		"wireless_settle":     c.Timing.WirelessSettle,
		"mosaic_launch_gap":   c.Timing.MosaicLaunchGap,
	} {
		if d < 0 {
			return fmt.Errorf("%w: timing.%s", ErrOutOfRange, name)
		}
	}

	return nil
}
