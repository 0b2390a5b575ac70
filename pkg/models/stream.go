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

package models

// ScreenSize is a width/height pair in pixels.
type ScreenSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s ScreenSize) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Rect is a window rectangle on the operator's screen.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// StreamOptions controls how a mirroring process presents one device.
// Pointer fields distinguish "unset" from zero values that scrcpy treats specially.
type StreamOptions struct {
	X      *int `json:"x,omitempty"`
	Y      *int `json:"y,omitempty"`
	Width  int  `json:"width,omitempty"`
	Height int  `json:"height,omitempty"`

	Title        string `json:"title,omitempty"`
	Borderless   bool   `json:"borderless,omitempty"`
	AlwaysOnTop  bool   `json:"always_on_top,omitempty"`
	Fullscreen   bool   `json:"fullscreen,omitempty"`
	MaxSize      int    `json:"max_size,omitempty"`
	BitrateKbps  int    `json:"bitrate_kbps,omitempty"`
	MaxFPS       int    `json:"max_fps,omitempty"`
	Crop         string `json:"crop,omitempty"`
	NoControl    bool   `json:"no_control,omitempty"`
	NoAudio      bool   `json:"no_audio,omitempty"`
	DisplayID    *int   `json:"display_id,omitempty"`

	// Target is the transport id passed to the mirroring tool. Empty means
	// the stream identity itself.
	Target string `json:"target,omitempty"`
}

// WithRect returns a copy of the options positioned in r.
func (o StreamOptions) WithRect(r Rect) StreamOptions {
	x, y := r.X, r.Y
	o.X = &x
	o.Y = &y
	o.Width = r.Width
	o.Height = r.Height

	return o
}

// ActionResult is the operator-facing outcome of a command.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Succeeded builds a successful ActionResult.
func Succeeded(message string) ActionResult {
	return ActionResult{Success: true, Message: message}
}

// Failed builds a failed ActionResult.
func Failed(message string) ActionResult {
	return ActionResult{Success: false, Message: message}
}
