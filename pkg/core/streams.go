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
	"errors"
	"fmt"

	"github.com/carverauto/adbmosaic/pkg/models"
	"github.com/carverauto/adbmosaic/pkg/mosaic"
	"github.com/carverauto/adbmosaic/pkg/registry"
	"github.com/carverauto/adbmosaic/pkg/stream"
)

// StartStream mirrors one device. The target transport is the TCP id when the
// device is wireless, otherwise its USB id.
func (s *Service) StartStream(ctx context.Context, id string, opts models.StreamOptions) models.ActionResult {
	identity := id

	if d, ok := s.registry.FindByAnyID(id); ok {
		identity = d.Identity

		if opts.Target == "" {
			opts.Target = d.StreamTarget()
		}
	}

	s.applyStreamDefaults(&opts)

	if err := s.streams.Start(ctx, identity, opts); err != nil {
		s.logger.Warn().Err(err).Str("identity", identity).Msg("Stream start failed")

		if errors.Is(err, stream.ErrStreamActive) {
			return models.Failed("A stream is already running for " + identity)
		}

		return models.Failed(fmt.Sprintf("Failed to start stream for %s: %v", identity, err))
	}

	s.setStreaming(ctx, identity, true)

	return models.Succeeded("Streaming " + identity)
}

// StopStream stops one device's stream.
func (s *Service) StopStream(ctx context.Context, id string) models.ActionResult {
	identity := id
	if d, ok := s.registry.FindByAnyID(id); ok {
		identity = d.Identity
	}

	err := s.streams.Stop(ctx, identity)
	if errors.Is(err, stream.ErrNoActiveStream) {
		return models.Failed("No active stream for " + identity)
	}

	s.setStreaming(ctx, identity, false)

	if err != nil {
		return models.Failed(fmt.Sprintf("Stream for %s did not stop cleanly: %v", identity, err))
	}

	return models.Succeeded("Stopped stream for " + identity)
}

// StopAllStreams stops every running stream.
func (s *Service) StopAllStreams(ctx context.Context) models.ActionResult {
	active := s.streams.ListActive()

	err := s.streams.StopAll(ctx)

	for _, identity := range active {
		s.setStreaming(ctx, identity, false)
	}

	if err != nil {
		s.logger.Warn().Err(err).Msg("Some streams did not stop cleanly")

		return models.Failed("Some streams did not stop cleanly: " + err.Error())
	}

	return models.Succeeded(fmt.Sprintf("Stopped %d streams", len(active)))
}

// ListActiveStreams returns the identities being mirrored, sorted.
func (s *Service) ListActiveStreams() []string {
	return s.streams.ListActive()
}

// StartMosaic stops every stream and mirrors ids tiled across screen. An
// empty ids uses the selection; a zero screen uses the configured one. It
// succeeds if at least one stream started.
func (s *Service) StartMosaic(ctx context.Context, ids []string, screen models.ScreenSize) models.ActionResult {
	if len(ids) == 0 {
		ids = s.Selected()
	}

	if len(ids) == 0 {
		return models.Failed("No devices selected")
	}

	if !screen.Valid() {
		screen = s.cfg.Screen
	}

	if res := s.StopAllStreams(ctx); !res.Success {
		s.logger.Warn().Str("reason", res.Message).Msg("Continuing mosaic after failed stop")
	}

	base := models.StreamOptions{}
	s.applyStreamDefaults(&base)

	placements, err := mosaic.Plan(ids, s.registry.FindByAnyID, screen, base)
	if err != nil {
		return models.Failed("Cannot plan mosaic: " + err.Error())
	}

	started := 0

	for i, p := range placements {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.MosaicLaunchGap); err != nil {
				break
			}
		}

		if err := s.streams.Start(ctx, p.Identity, p.Options); err != nil {
			s.logger.Warn().Err(err).Str("identity", p.Identity).Msg("Mosaic stream failed to start")

			continue
		}

		s.setStreaming(ctx, p.Identity, true)
		started++
	}

	if started == 0 {
		return models.Failed("No mosaic stream could be started")
	}

	return models.Succeeded(fmt.Sprintf("Started %d of %d streams", started, len(placements)))
}

func (s *Service) applyStreamDefaults(opts *models.StreamOptions) {
	if opts.MaxFPS <= 0 {
		opts.MaxFPS = s.cfg.MaxFPS
	}

	if opts.BitrateKbps <= 0 {
		opts.BitrateKbps = s.cfg.BitrateKbps
	}
}

func (s *Service) setStreaming(ctx context.Context, identity string, streaming bool) {
	err := s.registry.SetStreaming(ctx, identity, streaming)
	if err != nil && !errors.Is(err, registry.ErrDeviceNotFound) {
		s.logger.Warn().Err(err).Str("identity", identity).Msg("Failed to record streaming state")
	}
}
