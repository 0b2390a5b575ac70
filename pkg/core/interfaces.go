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

package core

import (
	"context"
	"time"

	"github.com/carverauto/adbmosaic/pkg/models"
)

// StreamController is the stream supervisor surface the service drives.
type StreamController interface {
	Start(ctx context.Context, identity string, opts models.StreamOptions) error
	Stop(ctx context.Context, identity string) error
	StopAll(ctx context.Context) error
	ListActive() []string
	OnExit(fn func(identity string))
}

// MirrorTool reports whether the mirroring binary can run.
type MirrorTool interface {
	Available(ctx context.Context) bool
}

// ServerStarter starts the adb server.
type ServerStarter interface {
	StartServer(ctx context.Context) error
}

// Config holds the command service settings.
type Config struct {
	WirelessPort    int
	MosaicLaunchGap time.Duration
	// Screen is the mosaic area used when a request does not give one.
	Screen      models.ScreenSize
	MaxFPS      int
	BitrateKbps int
}
