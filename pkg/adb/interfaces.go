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

//go:generate mockgen -destination=mock_adb.go -package=adb github.com/carverauto/adbmosaic/pkg/adb Probe

// Package adb queries and controls Android devices through the adb binary.
package adb

import (
	"context"

	"github.com/carverauto/adbmosaic/pkg/models"
)

// Probe is the device query surface consumed by the registry and the command service.
type Probe interface {
	// ListDevices enumerates every transport adb currently knows about, in adb's order.
	ListDevices(ctx context.Context) ([]models.RawDevice, error)

	// GetBatteryLevel returns the battery percentage, or -1 with an error when unreachable.
	GetBatteryLevel(ctx context.Context, id string) (int, error)

	GetScreenDimensions(ctx context.Context, id string) (models.ScreenSize, error)

	// GetDeviceIPAddress returns the address the device's network route uses.
	GetDeviceIPAddress(ctx context.Context, id string) (string, error)

	// GetSerialNumber returns the hardware serial, or "" when the device reports none.
	GetSerialNumber(ctx context.Context, id string) (string, error)

	// EnableWirelessAndConnect switches a USB device to TCP/IP mode and connects to it.
	// The result is always non-nil; NewID is set only on success.
	EnableWirelessAndConnect(ctx context.Context, id string) (*models.WirelessResult, error)

	Connect(ctx context.Context, addr string) error
	Disconnect(ctx context.Context, addr string) error
	Reboot(ctx context.Context, id string) error
}

// Runner executes a binary and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
