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

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaultPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{addr: "192.168.1.40", want: "192.168.1.40:5555"},
		{addr: "192.168.1.40:5556", want: "192.168.1.40:5556"},
		{addr: "phone.lan", want: "phone.lan:5555"},
		{addr: "fe80::1", want: "[fe80::1]:5555"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, WithDefaultPort(tt.addr, 5555))
		})
	}
}

func TestTransportClassification(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TransportTCP, ClassifyTransport("10.0.0.5:5555"))
	assert.Equal(t, TransportUSB, ClassifyTransport("R58M123ABC"))
	assert.Equal(t, "10.0.0.5", HostFromTransportID("10.0.0.5:5555"))
	assert.Empty(t, HostFromTransportID("R58M123ABC"))
}
