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

package stream

import "errors"

var (
	// ErrStreamActive means a stream is already registered for the identity.
	ErrStreamActive   = errors.New("stream already active")
	// ErrNoActiveStream means no stream is registered for the identity.
	ErrNoActiveStream = errors.New("no active stream")
	// ErrSpawnFailed means the mirroring process could not be started.
	ErrSpawnFailed    = errors.New("failed to start mirroring process")

	ErrEmptyIdentity = errors.New("stream identity is required")
	ErrClosed        = errors.New("stream supervisor closed")
)
