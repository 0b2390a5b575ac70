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

package stream

import (
	"strconv"

	"github.com/carverauto/adbmosaic/pkg/models"
)

// DefaultMaxFPS caps the mirrored frame rate when the options leave it unset.
const DefaultMaxFPS = 25

// BuildArgs renders stream options as scrcpy arguments. The transport
// selector is always last; an empty opts.Target selects identity.
func BuildArgs(identity string, opts models.StreamOptions) []string {
	args := make([]string, 0, 24)

	if opts.Width > 0 && opts.Height > 0 {
		args = append(args,
			"--window-width", strconv.Itoa(opts.Width),
			"--window-height", strconv.Itoa(opts.Height),
		)
	}

	if opts.X != nil && opts.Y != nil {
		args = append(args,
			"--window-x", strconv.Itoa(*opts.X),
			"--window-y", strconv.Itoa(*opts.Y),
		)
	}

	fps := opts.MaxFPS
	if fps <= 0 {
		fps = DefaultMaxFPS
	}

	args = append(args, "--max-fps", strconv.Itoa(fps))

	if opts.Borderless {
		args = append(args, "--window-borderless")
	}

	if opts.AlwaysOnTop {
		args = append(args, "--always-on-top")
	}

	if opts.Fullscreen {
		args = append(args, "--fullscreen")
	}

	if opts.MaxSize > 0 {
		args = append(args, "--max-size", strconv.Itoa(opts.MaxSize))
	}

	if opts.BitrateKbps > 0 {
		args = append(args, "--video-bit-rate", strconv.Itoa(opts.BitrateKbps)+"K")
	}

	if opts.Crop != "" {
		args = append(args, "--crop", opts.Crop)
	}

	if opts.NoControl {
		args = append(args, "--no-control")
	}

	if opts.NoAudio {
		args = append(args, "--no-audio")
	}

	if opts.DisplayID != nil {
		args = append(args, "--display-id", strconv.Itoa(*opts.DisplayID))
	}

	if opts.Title != "" {
		args = append(args, "--window-title", opts.Title)
	}

	target := opts.Target
	if target == "" {
		target = identity
	}

	return append(args, "--serial", target)
}
