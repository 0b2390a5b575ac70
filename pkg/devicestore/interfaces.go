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

//go:generate mockgen -destination=mock_devicestore.go -package=devicestore github.com/carverauto/adbmosaic/pkg/devicestore Store

// Package devicestore persists reconciled device records keyed by identity.
package devicestore

import (
	"context"

	"github.com/carverauto/adbmosaic/pkg/models"
)

// Store is the persistence surface the registry writes through.
type Store interface {
	// GetAll returns every persisted record ordered by identity.
	GetAll(ctx context.Context) ([]*models.Device, error)

	// Put inserts or replaces the record stored under device.Identity.
	Put(ctx context.Context, device *models.Device) error

	// Delete removes the record stored under identity. Missing keys are ignored.
	Delete(ctx context.Context, identity string) error
}
