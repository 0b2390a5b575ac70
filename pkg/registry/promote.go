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

	"github.com/carverauto/adbmosaic/pkg/models"
)

// Promote switches a USB-connected device to TCP/IP and records the wireless
// transport on its record. On any failure the record is left exactly as it
// was before the attempt.
func (e *Engine) Promote(ctx context.Context, identity string) (*models.WirelessResult, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	res, _, err := e.promoteLocked(ctx, identity)

	return res, err
}

// promoteLocked also returns the keys of records purged because they held
// the new TCP transport id.
func (e *Engine) promoteLocked(ctx context.Context, identity string) (*models.WirelessResult, []string, error) {
	e.mu.RLock()
	current, ok := e.lookupLocked(identity)

	var snapshot *models.Device
	if ok {
		snapshot = current.Clone()
	}
	e.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, identity)
	}

	switch {
	case snapshot.TCPConnected:
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyWireless, snapshot.Identity)
	case !snapshot.USBConnected || snapshot.Transport.USB == "":
		return nil, nil, fmt.Errorf("%w: %s", ErrNotUSBConnected, snapshot.Identity)
	}

	res, err := e.probe.EnableWirelessAndConnect(ctx, snapshot.Transport.USB)
	if err != nil || res == nil || !res.Success || res.NewID == "" {
		if err == nil {
			err = errWirelessNotConfirmed
		}

		e.rollback(snapshot)
		recordPromotion(ctx, false)

		e.logger.Warn().Err(err).Str("identity", snapshot.Identity).Msg("Wireless promotion failed, record unchanged")

		return res, nil, fmt.Errorf("%w: %s: %w", ErrPromotionFailed, snapshot.Identity, err)
	}

	updated := snapshot.Clone()
	updated.TCPConnected = true
	updated.Transport.TCP = res.NewID
	updated.LastSeen = e.now()

	if res.IPAddress != "" {
		updated.IP = res.IPAddress
	} else if host := models.HostFromTransportID(res.NewID); host != "" {
		updated.IP = host
	}

	if err := e.store.Put(ctx, updated); err != nil {
		e.rollback(snapshot)
		recordPromotion(ctx, false)

		return res, nil, fmt.Errorf("%w: %s: persist: %w", ErrPromotionFailed, snapshot.Identity, err)
	}

	purged := e.releaseTCPID(ctx, updated.Identity, res.NewID)

	e.mu.Lock()
	e.devices[updated.Identity] = updated
	e.mu.Unlock()

	recordPromotion(ctx, true)

	e.logger.Info().
		Str("identity", updated.Identity).
		Str("usb_id", snapshot.Transport.USB).
		Str("tcp_id", res.NewID).
		Strs("purged", purged).
		Msg("Device promoted to TCP/IP")

	return res, purged, nil
}

// rollback reinstates the pre-promotion record in the cache.
func (e *Engine) rollback(snapshot *models.Device) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.devices[snapshot.Identity]; ok {
		e.devices[snapshot.Identity] = snapshot
	}
}

// releaseTCPID removes every other claim on tcpID: a record keyed under it is
// purged and any other record holding it drops the transport. It returns the
// purged keys.
func (e *Engine) releaseTCPID(ctx context.Context, owner, tcpID string) []string {
	e.mu.RLock()

	var (
		purge   []string
		changed []*models.Device
	)

	for identity, d := range e.devices {
		if identity == owner {
			continue
		}

		if identity == tcpID {
			purge = append(purge, identity)

			continue
		}

		if d.Transport.TCP == tcpID {
			c := d.Clone()
			clearTransportID(c, tcpID)
			changed = append(changed, c)
		}
	}
	e.mu.RUnlock()

	var purged []string

	for _, identity := range purge {
		if err := e.store.Delete(ctx, identity); err != nil {
			e.logger.Warn().Err(err).Str("key", identity).Msg("Failed to purge record holding promoted transport id")

			continue
		}

		e.dropFromCache(identity)
		purged = append(purged, identity)
	}

	recordPurged(ctx, len(purged))

	for _, d := range changed {
		e.put(ctx, d)

		e.mu.Lock()
		e.devices[d.Identity] = d
		e.mu.Unlock()
	}

	return purged
}

func (e *Engine) dropFromCache(identity string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.devices, identity)

	for i, id := range e.order {
		if id == identity {
			e.order = append(e.order[:i:i], e.order[i+1:]...)

			break
		}
	}
}
