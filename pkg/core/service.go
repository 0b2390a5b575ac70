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

// Package core is the operator command surface. Every command reports an
// operator-facing result; failures are logged and summarized, never returned.
package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/adbmosaic/pkg/adb"
	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
	"github.com/carverauto/adbmosaic/pkg/registry"
)

const defaultWirelessPort = 5555

// Service wires the probe, the device registry and the stream supervisor
// together and keeps the operator's selection.
type Service struct {
	probe    adb.Probe
	registry registry.Manager
	streams  StreamController
	mirror   MirrorTool
	starter  ServerStarter
	cfg      Config
	logger   logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	selected map[string]struct{}
}

// Deps are the collaborators of a Service. Starter may be nil.
type Deps struct {
	Probe    adb.Probe
	Registry registry.Manager
	Streams  StreamController
	Mirror   MirrorTool
	Starter  ServerStarter
}

// NewService creates the command service.
func NewService(deps Deps, cfg Config, log logger.Logger) *Service {
	if cfg.WirelessPort <= 0 {
		cfg.WirelessPort = defaultWirelessPort
	}

	return &Service{
		probe:    deps.Probe,
		registry: deps.Registry,
		streams:  deps.Streams,
		mirror:   deps.Mirror,
		starter:  deps.Starter,
		cfg:      cfg,
		logger:   log,
		sleep:    sleepCtx,
		selected: make(map[string]struct{}),
	}
}

// Start starts the adb server, loads the persisted devices and keeps the
// streaming flag in sync with mirroring processes that exit on their own.
func (s *Service) Start(ctx context.Context) error {
	if s.starter != nil {
		if err := s.starter.StartServer(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to start adb server")
		}
	}

	if err := s.registry.Load(ctx); err != nil {
		return fmt.Errorf("load devices: %w", err)
	}

	s.streams.OnExit(func(identity string) {
		if err := s.registry.SetStreaming(context.Background(), identity, false); err != nil {
			s.logger.Debug().Err(err).Str("identity", identity).Msg("Could not clear streaming flag")
		}
	})

	return nil
}

// Refresh reconciles the device list and prunes the selection to devices
// that are reachable over TCP/IP.
func (s *Service) Refresh(ctx context.Context) (*registry.Result, models.ActionResult) {
	res, err := s.registry.Reconcile(ctx)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrEnvironmentNotReady):
			s.logger.Info().Msg("No devices attached")

			return nil, models.Failed("No devices connected")
		case errors.Is(err, registry.ErrTransportUnavailable):
			s.logger.Error().Err(err).Msg("adb unavailable")

			return nil, models.Failed("adb is not available: " + err.Error())
		default:
			s.logger.Error().Err(err).Msg("Refresh failed")

			return nil, models.Failed("Refresh failed: " + err.Error())
		}
	}

	s.pruneSelection(res.TCPConnected)

	for _, p := range res.Promotions {
		if p.Err != nil {
			s.logger.Warn().Err(p.Err).Str("identity", p.Identity).Msg("Automatic wireless promotion failed")
		}
	}

	return res, models.Succeeded(fmt.Sprintf("%d devices, %d wireless", len(res.Devices), len(res.TCPConnected)))
}

// Devices returns the known devices.
func (s *Service) Devices() []*models.Device {
	return s.registry.Devices()
}

// Connect connects to a device over TCP/IP, then refreshes.
func (s *Service) Connect(ctx context.Context, addr string) models.ActionResult {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return models.Failed("An address is required")
	}

	addr = models.WithDefaultPort(addr, s.cfg.WirelessPort)

	if err := s.probe.Connect(ctx, addr); err != nil {
		s.logger.Warn().Err(err).Str("addr", addr).Msg("Connect failed")

		return models.Failed(fmt.Sprintf("Failed to connect to %s: %v", addr, err))
	}

	if _, res := s.Refresh(ctx); !res.Success {
		s.logger.Warn().Str("addr", addr).Str("reason", res.Message).Msg("Refresh after connect failed")
	}

	return models.Succeeded("Connected to " + addr)
}

// Disconnect drops a device's TCP/IP connection and keeps its record as
// disconnected.
func (s *Service) Disconnect(ctx context.Context, id string) models.ActionResult {
	target := id
	identity := id

	if d, ok := s.registry.FindByAnyID(id); ok {
		identity = d.Identity

		if d.Transport.TCP != "" {
			target = d.Transport.TCP
		}
	}

	if err := s.probe.Disconnect(ctx, target); err != nil {
		s.logger.Warn().Err(err).Str("target", target).Msg("Disconnect failed")

		return models.Failed(fmt.Sprintf("Failed to disconnect %s: %v", target, err))
	}

	if err := s.registry.MarkDisconnected(ctx, identity); err != nil && !errors.Is(err, registry.ErrDeviceNotFound) {
		s.logger.Warn().Err(err).Str("identity", identity).Msg("Failed to mark device disconnected")
	}

	s.deselect(identity)

	return models.Succeeded("Disconnected " + target)
}

// Reboot reboots a device over its preferred transport.
func (s *Service) Reboot(ctx context.Context, id string) models.ActionResult {
	target := id
	if d, ok := s.registry.FindByAnyID(id); ok {
		target = d.StreamTarget()
	}

	if err := s.probe.Reboot(ctx, target); err != nil {
		s.logger.Warn().Err(err).Str("target", target).Msg("Reboot failed")

		return models.Failed(fmt.Sprintf("Failed to reboot %s: %v", target, err))
	}

	return models.Succeeded("Rebooting " + target)
}

// ConvertToWireless promotes a USB-connected device to TCP/IP on request.
func (s *Service) ConvertToWireless(ctx context.Context, id string) models.ActionResult {
	d, ok := s.registry.FindByAnyID(id)
	switch {
	case !ok:
		return models.Failed("Unknown device " + id)
	case d.TCPConnected:
		return models.Failed(d.Name + " is already connected over TCP/IP")
	case !d.USBConnected || d.Transport.USB == "":
		return models.Failed(d.Name + " is not connected over USB")
	}

	ip, err := s.probe.GetDeviceIPAddress(ctx, d.Transport.USB)
	if err != nil {
		s.logger.Warn().Err(err).Str("identity", d.Identity).Msg("No IP address for wireless conversion")

		return models.Failed(fmt.Sprintf("Could not find an IP address for %s: %v", d.Name, err))
	}

	addr := net.JoinHostPort(ip, strconv.Itoa(s.cfg.WirelessPort))
	if owner, ok := s.registry.FindByAnyID(addr); ok && owner.Identity != d.Identity && owner.TCPConnected {
		return models.Failed(fmt.Sprintf("%s is already in use by %s", addr, owner.Name))
	}

	res, err := s.registry.Promote(ctx, d.Identity)
	if err != nil {
		return models.Failed(fmt.Sprintf("Failed to switch %s to TCP/IP: %v", d.Name, err))
	}

	return models.Succeeded(fmt.Sprintf("%s connected at %s", d.Name, res.NewID))
}

// Rename sets a device's display name.
func (s *Service) Rename(ctx context.Context, id, name string) models.ActionResult {
	if err := s.registry.Rename(ctx, id, name); err != nil {
		return models.Failed(fmt.Sprintf("Failed to rename %s: %v", id, err))
	}

	return models.Succeeded(fmt.Sprintf("Renamed %s to %s", id, strings.TrimSpace(name)))
}

// Remove forgets a device, stopping its stream first.
func (s *Service) Remove(ctx context.Context, id string) models.ActionResult {
	identity := id
	if d, ok := s.registry.FindByAnyID(id); ok {
		identity = d.Identity
	}

	if s.isActive(identity) {
		if err := s.streams.Stop(ctx, identity); err != nil {
			s.logger.Warn().Err(err).Str("identity", identity).Msg("Failed to stop stream of removed device")
		}
	}

	if err := s.registry.Remove(ctx, identity); err != nil {
		return models.Failed(fmt.Sprintf("Failed to remove %s: %v", id, err))
	}

	s.deselect(identity)

	return models.Succeeded("Removed " + identity)
}

// MirrorToolAvailable reports whether scrcpy can be executed.
func (s *Service) MirrorToolAvailable(ctx context.Context) bool {
	return s.mirror.Available(ctx)
}

func (s *Service) isActive(identity string) bool {
	active := s.streams.ListActive()
	i := sort.SearchStrings(active, identity)

	return i < len(active) && active[i] == identity
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
