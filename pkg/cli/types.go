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

package cli

import (
	"context"
	"time"

	"github.com/carverauto/adbmosaic/pkg/models"
	"github.com/carverauto/adbmosaic/pkg/registry"
)

// Commands is the command surface the CLI drives; *core.Service implements it.
type Commands interface {
	Refresh(ctx context.Context) (*registry.Result, models.ActionResult)
	Devices() []*models.Device
	Connect(ctx context.Context, addr string) models.ActionResult
	Disconnect(ctx context.Context, id string) models.ActionResult
	Reboot(ctx context.Context, id string) models.ActionResult
	ConvertToWireless(ctx context.Context, id string) models.ActionResult
	Rename(ctx context.Context, id, name string) models.ActionResult
	Remove(ctx context.Context, id string) models.ActionResult
	StartStream(ctx context.Context, id string, opts models.StreamOptions) models.ActionResult
	StopAllStreams(ctx context.Context) models.ActionResult
	ListActiveStreams() []string
	StartMosaic(ctx context.Context, ids []string, screen models.ScreenSize) models.ActionResult
	MirrorToolAvailable(ctx context.Context) bool
}

// CmdConfig holds parsed command-line configuration.
type CmdConfig struct {
	Help       bool
	Debug      bool
	JSON       bool
	ConfigFile string
	SubCmd     string
	Args       []string

	Stream   models.StreamOptions
	Screen   models.ScreenSize
	Interval time.Duration
	// NoRefresh skips the reconcile pass that precedes device-addressed commands.
	NoRefresh bool
}
