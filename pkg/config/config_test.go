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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5555, cfg.Wireless.Port)
	assert.Equal(t, 2*time.Second, cfg.Timing.WirelessSettle.Std())
	assert.Equal(t, models.ScreenSize{Width: 1920, Height: 1080}, cfg.Mosaic.Screen())
	assert.Equal(t, StoreBackendLocal, cfg.Store.Backend)
	assert.Equal(t, DefaultStoreDir(), cfg.Store.Local.Dir)
	assert.Equal(t, filepath.Join("adbmosaic", "store"), filepath.Join(filepath.Base(filepath.Dir(cfg.Store.Local.Dir)), filepath.Base(cfg.Store.Local.Dir)))
}

func TestFileConfigLoaderYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "adbmosaic.yaml", `
adb_path: /opt/platform-tools/adb
store:
  backend: nats
  nats:
    url: nats://10.0.0.2:4222
    bucket: phones
timing:
  stop_settle: 250ms
  wireless_settle: 3s
wireless:
  port: 5556
`)

	cfg := DefaultConfig()
	require.NoError(t, NewFileConfigLoader(logger.NewTestLogger()).Load(context.Background(), path, cfg))

	assert.Equal(t, "/opt/platform-tools/adb", cfg.ADBPath)
	assert.Equal(t, StoreBackendNATS, cfg.Store.Backend)
	assert.Equal(t, "phones", cfg.Store.NATS.Bucket)
	assert.Equal(t, 250*time.Millisecond, cfg.Timing.StopSettle.Std())
	assert.Equal(t, 3*time.Second, cfg.Timing.WirelessSettle.Std())
	assert.Equal(t, 5556, cfg.Wireless.Port)
	// untouched keys keep their defaults
	assert.Equal(t, "scrcpy", cfg.ScrcpyPath)
	assert.Equal(t, time.Second, cfg.Timing.ExitCleanupDelay.Std())
}

func TestFileConfigLoaderJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "adbmosaic.json", `{
  "registry": {"auto_promote": false},
  "probe": {"concurrency": 8, "command_timeout": "5s"},
  "mosaic": {"screen_width": 2560, "screen_height": 1440}
}`)

	cfg := DefaultConfig()
	require.NoError(t, NewFileConfigLoader(nil).Load(context.Background(), path, cfg))

	assert.False(t, cfg.Registry.AutoPromote)
	assert.Equal(t, 8, cfg.Probe.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Probe.CommandTimeout.Std())
	assert.Equal(t, 2560, cfg.Mosaic.ScreenWidth)
}

func TestFileConfigLoaderRejectsUnknownExtension(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "adbmosaic.toml", "adb_path = 'adb'")

	err := NewFileConfigLoader(nil).Load(context.Background(), path, DefaultConfig())
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("ADBMOSAIC_STORE_BACKEND", "postgres")
	t.Setenv("ADBMOSAIC_STORE_POSTGRES_HOST", "db.local")
	t.Setenv("ADBMOSAIC_STORE_POSTGRES_DATABASE", "adbmosaic")
	t.Setenv("ADBMOSAIC_STORE_POSTGRES_PORT", "6543")
	t.Setenv("ADBMOSAIC_TIMING_STOP_SETTLE", "750ms")
	t.Setenv("ADBMOSAIC_REGISTRY_AUTO_PROMOTE", "false")

	cfg, err := Load(context.Background(), "", logger.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	require.NotNil(t, cfg.Store.Postgres)
	assert.Equal(t, "db.local", cfg.Store.Postgres.Host)
	assert.Equal(t, 6543, cfg.Store.Postgres.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.Timing.StopSettle.Std())
	assert.False(t, cfg.Registry.AutoPromote)
}

func TestLoadRejectsBadEnvValue(t *testing.T) {
	t.Setenv("ADBMOSAIC_PROBE_CONCURRENCY", "many")

	_, err := Load(context.Background(), "", nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, ErrUnknownStoreBackend},
		{"local without dir", func(c *Config) { c.Store.Local.Dir = "" }, ErrMissingField},
		{"nats without bucket", func(c *Config) { c.Store.Backend = StoreBackendNATS; c.Store.NATS.Bucket = "" }, ErrMissingField},
		{"postgres without config", func(c *Config) { c.Store.Backend = StoreBackendPostgres }, ErrMissingField},
		{"empty adb path", func(c *Config) { c.ADBPath = "" }, ErrMissingField},
		{"bad port", func(c *Config) { c.Wireless.Port = 70000 }, ErrOutOfRange},
		{"zero concurrency", func(c *Config) { c.Probe.Concurrency = 0 }, ErrOutOfRange},
		{"negative settle", func(c *Config) { c.Timing.StopSettle = models.Duration(-time.Second) }, ErrOutOfRange},
		{"empty screen", func(c *Config) { c.Mosaic.ScreenWidth = 0 }, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}
