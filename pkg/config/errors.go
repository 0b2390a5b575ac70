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

package config

import "errors"

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer   = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
	// ErrUnsupportedFormat is returned for config files that are neither JSON nor YAML.
	ErrUnsupportedFormat        = errors.New("unsupported config file format")
	// ErrUnsupportedField is returned for env overrides targeting a field kind the loader cannot set.
	ErrUnsupportedField         = errors.New("unsupported field kind for environment override")

	ErrMissingField        = errors.New("missing required config field")
	ErrOutOfRange          = errors.New("config value out of range")
	ErrUnknownStoreBackend = errors.New("unknown store backend")
)
