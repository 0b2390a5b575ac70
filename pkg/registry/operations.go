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

package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/carverauto/adbmosaic/pkg/identitymap"
	"github.com/carverauto/adbmosaic/pkg/models"
)

// Devices returns copies of every known device: connected devices in scan
// order, then absent ones by identity.
func (e *Engine) Devices() []*models.Device {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.Device, 0, len(e.order))

	for _, identity := range e.order {
		if d, ok := e.devices[identity]; ok {
			out = append(out, d.Clone())
		}
	}

	return out
}

// Device returns a copy of the record with the given identity.
func (e *Engine) Device(identity string) (*models.Device, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d, ok := e.devices[identity]
	if !ok {
		return nil, false
	}

	return d.Clone(), true
}

// FindByAnyID resolves an identity, TCP id or USB id to a copy of its record.
func (e *Engine) FindByAnyID(id string) (*models.Device, bool) {
	e.mu.RLock()
	d, ok := e.lookupLocked(id)

	var out *models.Device
	if ok {
		out = d.Clone()
	}
	e.mu.RUnlock()

	identitymap.RecordLookup(context.Background(), ok)

	return out, ok
}

// lookupLocked must be called with mu held.
func (e *Engine) lookupLocked(id string) (*models.Device, bool) {
	if d, ok := e.devices[id]; ok {
		return d, true
	}

	index := identitymap.NewIndex(e.snapshotLocked())

	identity, ok := index.Resolve(id)
	if !ok {
		return nil, false
	}

	d, ok := e.devices[identity]

	return d, ok
}

func (e *Engine) snapshotLocked() []*models.Device {
	out := make([]*models.Device, 0, len(e.order))

	for _, identity := range e.order {
		if d, ok := e.devices[identity]; ok {
			out = append(out, d)
		}
	}

	return out
}

// Rename sets an operator-chosen display name. Later passes never overwrite it.
func (e *Engine) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	return e.update(ctx, id, func(d *models.Device) {
		d.Name = name
		d.NameSource = models.NameSourceUser
	})
}

// MarkDisconnected clears the connection state of a device.
func (e *Engine) MarkDisconnected(ctx context.Context, id string) error {
	return e.update(ctx, id, func(d *models.Device) {
		d.MarkDisconnected()
	})
}

// SetStreaming records whether a mirroring window is open for the device.
func (e *Engine) SetStreaming(ctx context.Context, id string, streaming bool) error {
	return e.update(ctx, id, func(d *models.Device) {
		d.IsStreaming = streaming
	})
}

// Remove deletes a device record.
func (e *Engine) Remove(ctx context.Context, id string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.RLock()
	d, ok := e.lookupLocked(id)
	e.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	identity := d.Identity

	if err := e.store.Delete(ctx, identity); err != nil {
		return fmt.Errorf("remove device %s: %w", identity, err)
	}

	e.dropFromCache(identity)

	e.logger.Info().Str("identity", identity).Msg("Device record removed")

	return nil
}

// update applies fn to a copy of the record and persists it before the cache
// sees the change.
func (e *Engine) update(ctx context.Context, id string, fn func(*models.Device)) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.RLock()
	current, ok := e.lookupLocked(id)

	var next *models.Device
	if ok {
		next = current.Clone()
	}
	e.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	fn(next)

	if err := e.store.Put(ctx, next); err != nil {
		return fmt.Errorf("persist device %s: %w", next.Identity, err)
	}

	e.mu.Lock()
	e.devices[next.Identity] = next
	e.mu.Unlock()

	return nil
}
