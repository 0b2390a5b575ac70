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

// Package mosaic lays mirroring windows out in a grid and derives the crop
// region each device should show.
package mosaic

import (
	"fmt"
	"math"

	"github.com/carverauto/adbmosaic/pkg/models"
)

// MaxPlacements is the largest number of devices a mosaic can hold.
const MaxPlacements = 16

// Crop reference: a 3664x1920 panel shows a 1600x900 region starting at 55%
// of the width and 26.5% of the height.
const (
	referenceWidth  = 3664
	referenceHeight = 1920
	referenceCropW  = 1600
	referenceCropH  = 900
	cropOriginX     = 0.55
	cropOriginY     = 0.265
)

// Grid returns the rows and columns used for n devices.
func Grid(n int) (rows, cols int) {
	switch {
	case n <= 1:
		return 1, 1
	case n == 2:
		return 1, 2
	case n <= 4:
		return 2, 2
	case n <= 6:
		return 2, 3
	case n <= 9:
		return 3, 3
	case n <= 12:
		return 3, 4
	default:
		return 4, 4
	}
}

// CellRects tiles screen row-major, left to right then top to bottom.
func CellRects(rows, cols int, screen models.ScreenSize) []models.Rect {
	if rows <= 0 || cols <= 0 {
		return nil
	}

	w := screen.Width / cols
	h := screen.Height / rows

	rects := make([]models.Rect, 0, rows*cols)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rects = append(rects, models.Rect{X: c * w, Y: r * h, Width: w, Height: h})
		}
	}

	return rects
}

// Crop returns the scrcpy crop string (w:h:x:y) for a device of the given
// resolution.
func Crop(width, height int) string {
	cw := roundInt(referenceCropW * float64(width) / referenceWidth)
	ch := roundInt(referenceCropH * float64(height) / referenceHeight)
	x := roundInt(float64(width) * cropOriginX)
	y := roundInt(float64(height) * cropOriginY)

	return fmt.Sprintf("%d:%d:%d:%d", cw, ch, x, y)
}

// FallbackCrop is used when a device's resolution is unknown.
func FallbackCrop(screen models.ScreenSize) string {
	return fmt.Sprintf("%d:%d:0:0", screen.Width, screen.Height)
}

// roundInt rounds half up, matching the crop reference values.
func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}
