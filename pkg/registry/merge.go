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
	"time"

	"github.com/carverauto/adbmosaic/pkg/models"
)

// observation is one actionable scan entry after its probes succeeded.
type observation struct {
	raw      models.RawDevice
	kind     models.TransportKind
	identity string
	battery  int
	screen   models.ScreenSize
}

// defaultName derives a display name for a device seen for the first time.
func defaultName(raw models.RawDevice) string {
	if raw.Model != "" {
		return raw.Model
	}

	id := raw.ID
	if len(id) > 4 {
		id = id[:4]
	}

	return "Device " + id
}

// mergeDevice overlays a fresh observation on the record already known for
// the same identity (nil for a new device). Precedence:
//   - an existing name survives; a new record is named after its model
//   - metrics from the observation replace older ones
//   - only the observed transport's flag and id are set
//   - the model is refreshed when the scan reports one
//
// Connection flags inherited from earlier passes are dropped: a flag is true
// only if this pass observed that transport.
func mergeDevice(existing *models.Device, obs *observation, now time.Time) *models.Device {
	var d *models.Device

	if existing != nil {
		d = existing.Clone()
	} else {
		d = &models.Device{
			Identity:   obs.identity,
			NameSource: models.NameSourceAuto,
			FirstSeen:  now,
		}
	}

	d.USBConnected = false
	d.TCPConnected = false

	if d.Name == "" {
		d.Name = defaultName(obs.raw)
		d.NameSource = models.NameSourceAuto
	}

	if obs.raw.Model != "" {
		d.Model = obs.raw.Model
	}

	d.BatteryLevel = models.IntPtr(obs.battery)
	d.ScreenWidth = models.IntPtr(obs.screen.Width)
	d.ScreenHeight = models.IntPtr(obs.screen.Height)

	applyTransport(d, obs)

	d.LastSeen = now

	return d
}

func applyTransport(d *models.Device, obs *observation) {
	switch obs.kind {
	case models.TransportTCP:
		d.TCPConnected = true
		d.Transport.TCP = obs.raw.ID

		if ip := obs.raw.IP; ip != "" {
			d.IP = ip
		} else if host := models.HostFromTransportID(obs.raw.ID); host != "" {
			d.IP = host
		}
	case models.TransportUSB:
		d.USBConnected = true
		d.Transport.USB = obs.raw.ID
	}
}

// carryEarlierTransport keeps the liveness of an earlier entry's transport on
// the row that replaced it in the same scan. When both entries used the same
// transport kind the later one wins outright.
func carryEarlierTransport(winner, earlier *models.Device, earlierKind, laterKind models.TransportKind) {
	if earlierKind == laterKind {
		return
	}

	switch earlierKind {
	case models.TransportUSB:
		winner.USBConnected = earlier.USBConnected
		winner.Transport.USB = earlier.Transport.USB
	case models.TransportTCP:
		winner.TCPConnected = earlier.TCPConnected
		winner.Transport.TCP = earlier.Transport.TCP

		if winner.IP == "" {
			winner.IP = earlier.IP
		}
	}
}

// foldLegacy carries what must survive from a record being folded into its
// canonical replacement.
func foldLegacy(canonical, legacy *models.Device) {
	if legacy.NameSource == models.NameSourceUser && canonical.NameSource != models.NameSourceUser {
		canonical.Name = legacy.Name
		canonical.NameSource = models.NameSourceUser
	}

	if !legacy.FirstSeen.IsZero() && (canonical.FirstSeen.IsZero() || legacy.FirstSeen.Before(canonical.FirstSeen)) {
		canonical.FirstSeen = legacy.FirstSeen
	}

	if _, ok := canonical.ScreenSize(); !ok {
		if size, ok := legacy.ScreenSize(); ok {
			canonical.ScreenWidth = models.IntPtr(size.Width)
			canonical.ScreenHeight = models.IntPtr(size.Height)
		}
	}
}
