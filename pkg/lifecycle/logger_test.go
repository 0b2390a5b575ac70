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

package lifecycle

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/adbmosaic/pkg/logger"
)

func TestCreateComponentLoggerTagsComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "component.log")

	log, err := CreateComponentLogger("registry", &logger.Config{Level: "info", Output: path})
	require.NoError(t, err)

	log.Info().Str("identity", "SN123").Msg("reconciled")

	impl, ok := log.(*LoggerImpl)
	require.True(t, ok)
	require.NoError(t, impl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "registry", entry["component"])
	assert.Equal(t, "SN123", entry["identity"])
	assert.Equal(t, "reconciled", entry["message"])
}

func TestNewLoggerImplRejectsBadLevel(t *testing.T) {
	_, err := NewLoggerImpl(&logger.Config{Level: "loud", Output: "stderr"})
	require.Error(t, err)
}

func TestLoggerImplSetDebug(t *testing.T) {
	impl, err := NewLoggerImpl(&logger.Config{Level: "warn", Output: "stderr"})
	require.NoError(t, err)

	impl.SetDebug(true)
	assert.Equal(t, zerolog.DebugLevel, impl.logger.GetLevel())

	impl.SetDebug(false)
	assert.Equal(t, zerolog.InfoLevel, impl.logger.GetLevel())
}
