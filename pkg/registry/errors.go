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

import "errors"

var (
	// ErrTransportUnavailable means the device enumeration itself failed.
	ErrTransportUnavailable = errors.New("device transport unavailable")
	// ErrEnvironmentNotReady means no devices are attached and none were ever seen.
	ErrEnvironmentNotReady  = errors.New("environment not ready: no devices attached and none persisted")
	// ErrPromotionFailed means a USB to TCP/IP transition did not complete; the record was rolled back.
	ErrPromotionFailed      = errors.New("wireless promotion failed")

	ErrDeviceNotFound  = errors.New("device not found")
	ErrNotUSBConnected = errors.New("device is not connected over USB")
	ErrAlreadyWireless = errors.New("device is already connected over TCP/IP")
	ErrInvalidName     = errors.New("device name is empty")

	errWirelessNotConfirmed = errors.New("wireless connect not confirmed")
)
