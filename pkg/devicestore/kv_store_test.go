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

package devicestore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/adbmosaic/pkg/kv"
	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
)

func TestKeyForRoundTripsTransportIDs(t *testing.T) {
	t.Parallel()

	for _, identity := range []string{"SN123", "10.0.0.5:5555", "emulator-5554"} {
		key := KeyFor(identity)
		assert.NotContains(t, key, ":")

		got, err := IdentityFromKey(key)
		require.NoError(t, err)
		assert.Equal(t, identity, got)
	}
}

func TestKVStorePutGetAllDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewKVStore(kv.NewMemoryStore(), logger.NewTestLogger())

	require.NoError(t, store.Put(ctx, &models.Device{Identity: "SN2", Name: "Tablet", BatteryLevel: models.IntPtr(40)}))
	require.NoError(t, store.Put(ctx, &models.Device{Identity: "SN1", Name: "Pixel", USBConnected: true}))

	devices, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "SN1", devices[0].Identity)
	assert.True(t, devices[0].USBConnected)
	assert.Equal(t, "SN2", devices[1].Identity)
	require.NotNil(t, devices[1].BatteryLevel)
	assert.Equal(t, 40, *devices[1].BatteryLevel)

	require.NoError(t, store.Delete(ctx, "SN1"))

	devices, err = store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "SN2", devices[0].Identity)
}

func TestKVStoreSkipsCorruptRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := kv.NewMemoryStore()
	store := NewKVStore(backend, logger.NewTestLogger())

	require.NoError(t, backend.Put(ctx, KeyFor("bad"), []byte("{not json")))
	require.NoError(t, store.Put(ctx, &models.Device{Identity: "good"}))

	devices, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "good", devices[0].Identity)
}

func TestKVStoreRejectsEmptyIdentity(t *testing.T) {
	t.Parallel()

	store := NewKVStore(kv.NewMemoryStore(), logger.NewTestLogger())

	require.ErrorIs(t, store.Put(context.Background(), &models.Device{}), ErrEmptyIdentity)
	require.ErrorIs(t, store.Delete(context.Background(), ""), ErrEmptyIdentity)
}

func TestKVStorePropagatesBackendErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	backend := kv.NewMockKVStore(ctrl)
	store := NewKVStore(backend, logger.NewTestLogger())

	errBoom := errors.New("boom")

	backend.EXPECT().Keys(gomock.Any(), "device.").Return(nil, errBoom)
	backend.EXPECT().Put(gomock.Any(), KeyFor("SN1"), gomock.Any()).Return(errBoom)

	_, err := store.GetAll(context.Background())
	require.ErrorIs(t, err, errBoom)

	err = store.Put(context.Background(), &models.Device{Identity: "SN1"})
	require.ErrorIs(t, err, errBoom)
}
