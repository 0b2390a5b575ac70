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

package kv

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	}

	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, func() bool {
		return srv.JetStreamEnabled()
	}, 5*time.Second, 50*time.Millisecond, "embedded NATS server not ready for JetStream")

	t.Cleanup(srv.Shutdown)

	return srv
}

func exerciseStore(t *testing.T, store KVStore) {
	t.Helper()

	ctx := context.Background()

	_, found, err := store.Get(ctx, "device.missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "device.b", []byte("two")))
	require.NoError(t, store.Put(ctx, "device.a", []byte("one")))
	require.NoError(t, store.Put(ctx, "other.c", []byte("three")))

	value, found, err := store.Get(ctx, "device.a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("one"), value)

	keys, err := store.Keys(ctx, "device.")
	require.NoError(t, err)
	assert.Equal(t, []string{"device.a", "device.b"}, keys)

	require.NoError(t, store.Delete(ctx, "device.a"))
	require.NoError(t, store.Delete(ctx, "device.a"))

	keys, err = store.Keys(ctx, "device.")
	require.NoError(t, err)
	assert.Equal(t, []string{"device.b"}, keys)

	_, found, err = store.Get(ctx, "device.a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	exerciseStore(t, store)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	buf := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", buf))
	buf[0] = 'z'

	got, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestNatsStore(t *testing.T) {
	srv := runJetStreamServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewNatsStore(ctx, srv.ClientURL(), "adbmosaic-test", 0)
	require.NoError(t, err)

	defer func() { _ = store.Close() }()

	keys, err := store.Keys(ctx, "device.")
	require.NoError(t, err)
	assert.Empty(t, keys)

	exerciseStore(t, store)
}

func TestNewNatsStoreValidatesArguments(t *testing.T) {
	t.Parallel()

	_, err := NewNatsStore(context.Background(), "", "bucket", 0)
	require.ErrorIs(t, err, errNatsURLRequired)

	_, err = NewNatsStore(context.Background(), "nats://127.0.0.1:4222", "", 0)
	require.ErrorIs(t, err, errBucketRequired)
}

func TestLocalNatsStorePersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewLocalNatsStore(ctx, dir, "adbmosaic-local", 0)
	require.NoError(t, err)

	exerciseStore(t, store)
	require.NoError(t, store.Put(ctx, "device.kept", []byte("kept")))
	require.NoError(t, store.Close())

	reopened, err := NewLocalNatsStore(ctx, dir, "adbmosaic-local", 0)
	require.NoError(t, err)

	defer func() { _ = reopened.Close() }()

	value, found, err := reopened.Get(ctx, "device.kept")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("kept"), value)

	keys, err := reopened.Keys(ctx, "device.")
	require.NoError(t, err)
	assert.Equal(t, []string{"device.b", "device.kept"}, keys)
}

func TestStartEmbeddedServerRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := StartEmbeddedServer("")
	require.ErrorIs(t, err, errStoreDirRequired)
}
