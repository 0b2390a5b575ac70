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

package adb

import "errors"

var (
	ErrBatteryUnavailable = errors.New("battery level unavailable")
	ErrScreenUnavailable  = errors.New("screen dimensions unavailable")
	ErrNoIPAddress        = errors.New("no IP address found in route table")
	ErrTCPIPRejected      = errors.New("device did not restart in TCP mode")
	ErrConnectRejected    = errors.New("adb connect rejected")
	ErrDisconnectRejected = errors.New("adb disconnect rejected")
	ErrCommandFailed      = errors.New("adb command failed")
	ErrEmptyDeviceID      = errors.New("device id is empty")
)
