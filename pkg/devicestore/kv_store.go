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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/carverauto/adbmosaic/pkg/kv"
	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
)

const keyPrefix = "device."

// KeyFor returns the KV key a device identity is stored under. Identities
// such as "10.0.0.5:5555" contain characters NATS keys cannot, so the
// identity is base64url encoded.
func KeyFor(identity string) string {
	return keyPrefix + base64.RawURLEncoding.EncodeToString([]byte(identity))
}

// IdentityFromKey reverses KeyFor.
func IdentityFromKey(key string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(key, keyPrefix))
	if err != nil {
		return "", fmt.Errorf("malformed device key %q: %w", key, err)
	}

	return string(raw), nil
}

// KVStore stores devices as JSON documents in a kv.KVStore.
type KVStore struct {
	kv     kv.KVStore
	logger logger.Logger
}

// NewKVStore wraps store.
func NewKVStore(store kv.KVStore, log logger.Logger) *KVStore {
	return &KVStore{kv: store, logger: log}
}

// GetAll implements Store. Undecodable records are logged and skipped so a
// single corrupt entry cannot block reconciliation.
func (s *KVStore) GetAll(ctx context.Context) ([]*models.Device, error) {
	keys, err := s.kv.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list device keys: %w", err)
	}

	devices := make([]*models.Device, 0, len(keys))

	for _, key := range keys {
		data, found, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}

		if !found {
			continue
		}

		var device models.Device
		if err := json.Unmarshal(data, &device); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Skipping undecodable device record")
			continue
		}

		if device.Identity == "" {
			if device.Identity, err = IdentityFromKey(key); err != nil {
				s.logger.Warn().Err(err).Msg("Skipping device record without identity")
				continue
			}
		}

		devices = append(devices, &device)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Identity < devices[j].Identity
	})

	return devices, nil
}

// Put implements Store.
func (s *KVStore) Put(ctx context.Context, device *models.Device) error {
	if device == nil || device.Identity == "" {
		return ErrEmptyIdentity
	}

	data, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to encode device %s: %w", device.Identity, err)
	}

	if err := s.kv.Put(ctx, KeyFor(device.Identity), data); err != nil {
		return fmt.Errorf("failed to store device %s: %w", device.Identity, err)
	}

	return nil
}

// Delete implements Store.
func (s *KVStore) Delete(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrEmptyIdentity
	}

	if err := s.kv.Delete(ctx, KeyFor(identity)); err != nil {
		return fmt.Errorf("failed to delete device %s: %w", identity, err)
	}

	return nil
}

var _ Store = (*KVStore)(nil)
