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
	"context"

	"github.com/carverauto/adbmosaic/pkg/models"
)

// Manager is the device registry surface used by the command service.
type Manager interface {
	// Load primes the in-memory view from the persistence store.
	Load(ctx context.Context) error

	// Reconcile runs one scan-and-merge pass.
	Reconcile(ctx context.Context) (*Result, error)

	// Promote switches a USB-connected device to its wireless transport.
	Promote(ctx context.Context, identity string) (*models.WirelessResult, error)

	Devices() []*models.Device
	FindByAnyID(id string) (*models.Device, bool)

	Rename(ctx context.Context, id, name string) error
	Remove(ctx context.Context, id string) error
	MarkDisconnected(ctx context.Context, id string) error
	SetStreaming(ctx context.Context, id string, streaming bool) error
}

// Skipped is a scan entry that did not produce a connected device this pass.
type Skipped struct {
	ID     string              `json:"id"`
	Status models.DeviceStatus `json:"status"`
	Reason string              `json:"reason"`
}

// PromotionOutcome is the result of one automatic wireless promotion.
type PromotionOutcome struct {
	Identity string                 `json:"identity"`
	Result   *models.WirelessResult `json:"result,omitempty"`
	Err      error                  `json:"-"`
}

// Result is the outcome of a reconciliation pass.
type Result struct {
	// Devices holds connected devices in scan order, then absent devices by identity.
	Devices    []*models.Device   `json:"devices"`
	Skipped    []Skipped          `json:"skipped,omitempty"`
	Purged     []string           `json:"purged,omitempty"`
	Promotions []PromotionOutcome `json:"promotions,omitempty"`
	// TCPConnected lists the identities reachable over TCP/IP after the pass.
	TCPConnected []string `json:"tcp_connected"`
}
