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

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/adbmosaic/pkg/models"
)

func writeLocalConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "adbmosaic.yaml")

	content := fmt.Sprintf(`
adb_path: %s
scrcpy_path: %s
store:
  backend: local
  local:
    dir: %s
    bucket: devices-test
logging:
  level: error
  output: stderr
`, filepath.Join(dir, "missing-adb"), filepath.Join(dir, "missing-scrcpy"), filepath.Join(dir, "store"))

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func build(t *testing.T, path string) *Runtime {
	t.Helper()

	rt, err := Build(context.Background(), Options{ConfigPath: path})
	require.NoError(t, err)

	return rt
}

func TestBuild_LocalStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := writeLocalConfig(t)

	rt := build(t, path)
	require.NoError(t, rt.Store.Put(ctx, &models.Device{
		Identity:   "SN123",
		Transport:  models.TransportIDs{USB: "SN123"},
		Name:       "Pixel 7",
		NameSource: models.NameSourceAuto,
		Model:      "Pixel 7",
		FirstSeen:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}))
	require.NoError(t, rt.Close(ctx))

	rt = build(t, path)
	devices := rt.Service.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, "SN123", devices[0].Identity)
	assert.False(t, devices[0].Connected())

	res := rt.Service.Rename(ctx, "SN123", "Desk phone")
	require.True(t, res.Success, res.Message)
	require.NoError(t, rt.Close(ctx))

	rt = build(t, path)
	devices = rt.Service.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, "Desk phone", devices[0].Name)
	assert.Equal(t, models.NameSourceUser, devices[0].NameSource)

	res = rt.Service.Remove(ctx, "SN123")
	require.True(t, res.Success, res.Message)
	require.NoError(t, rt.Close(ctx))

	rt = build(t, path)
	assert.Empty(t, rt.Service.Devices())
	require.NoError(t, rt.Close(ctx))
}
