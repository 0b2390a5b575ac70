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

package mosaic

import (
	"github.com/carverauto/adbmosaic/pkg/models"
)

// Placement is one device's window in a mosaic.
type Placement struct {
	Identity string
	Rect     models.Rect
	Options  models.StreamOptions
}

// Lookup resolves a device by identity or transport id.
type Lookup func(id string) (*models.Device, bool)

// Plan places up to MaxPlacements devices on screen. base carries the
// settings shared by every cell (frame rate, bitrate); geometry, title, crop
// and the window flags are set per placement.
func Plan(ids []string, lookup Lookup, screen models.ScreenSize, base models.StreamOptions) ([]Placement, error) {
	if len(ids) == 0 {
		return nil, ErrNoDevices
	}

	if !screen.Valid() {
		return nil, ErrInvalidScreen
	}

	if len(ids) > MaxPlacements {
		ids = ids[:MaxPlacements]
	}

	rows, cols := Grid(len(ids))
	cells := CellRects(rows, cols, screen)
	multi := len(ids) > 1

	placements := make([]Placement, 0, len(ids))

	for i, id := range ids {
		opts := base.WithRect(cells[i])
		opts.Title = "Device " + id
		opts.Borderless = true
		opts.AlwaysOnTop = true
		opts.NoControl = multi
		opts.MaxSize = 0
		opts.Crop = FallbackCrop(screen)

		identity := id

		if lookup != nil {
			if device, ok := lookup(id); ok {
				identity = device.Identity
				opts.Target = device.StreamTarget()

				if size, ok := device.ScreenSize(); ok {
					opts.Crop = Crop(size.Width, size.Height)
				}
			}
		}

		placements = append(placements, Placement{Identity: identity, Rect: cells[i], Options: opts})
	}

	return placements, nil
}
