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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/adbmosaic/pkg/models"
)

func TestParseDeviceList(t *testing.T) {
	t.Parallel()

	output := `* daemon not running; starting now at tcp:5037
* daemon started successfully
List of devices attached
R58M1234ABC            device usb:1-1 product:beyond1lteeea model:SM_G973F device:beyond1 transport_id:1
10.0.0.5:5555          device product:panther model:Pixel_7 device:panther transport_id:2
0123456789ABCDEF       unauthorized usb:1-2 transport_id:3
emulator-5554          offline transport_id:4
FA8X31A00000           no permissions (user in plugdev group; are your udev rules wrong?); see [http://developer.android.com/tools/device.html] usb:1-3 transport_id:5

`

	devices := ParseDeviceList(output)
	require.Len(t, devices, 5)

	assert.Equal(t, models.RawDevice{
		ID:      "R58M1234ABC",
		Model:   "SM G973F",
		Product: "beyond1lteeea",
		Status:  models.DeviceStatusDevice,
	}, devices[0])

	assert.Equal(t, "10.0.0.5", devices[1].IP)
	assert.Equal(t, "Pixel 7", devices[1].Model)
	assert.Equal(t, models.DeviceStatusDevice, devices[1].Status)

	assert.Equal(t, models.DeviceStatusUnauthorized, devices[2].Status)
	assert.Equal(t, models.DeviceStatusOffline, devices[3].Status)
	assert.Equal(t, models.DeviceStatusNoPermissions, devices[4].Status)
	assert.Empty(t, devices[4].Model)
}

func TestParseDeviceListEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ParseDeviceList("List of devices attached\n\n"))
}

func TestParseBatteryLevel(t *testing.T) {
	t.Parallel()

	level, ok := ParseBatteryLevel("Current Battery Service state:\n  AC powered: false\n  level: 80\n  scale: 100\n")
	assert.True(t, ok)
	assert.Equal(t, 80, level)

	level, ok = ParseBatteryLevel("Can't find service: battery")
	assert.False(t, ok)
	assert.Equal(t, -1, level)
}

func TestParseDisplayDimensions(t *testing.T) {
	t.Parallel()

	size, ok := ParseDisplayDimensions(`  mDisplayInfos=
    DisplayDeviceInfo{"Built-in Screen": uniqueId="local:0", 1080 x 2400, modeId 1, width=1080, height=2400, density 420}`)
	assert.True(t, ok)
	assert.Equal(t, models.ScreenSize{Width: 1080, Height: 2400}, size)

	_, ok = ParseDisplayDimensions("width=1080")
	assert.False(t, ok)
}

func TestParseWMSize(t *testing.T) {
	t.Parallel()

	size, ok := ParseWMSize("Physical size: 1440x3200\nOverride size: 1080x2400\n")
	assert.True(t, ok)
	assert.Equal(t, models.ScreenSize{Width: 1440, Height: 3200}, size)
}

func TestParseRouteIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   string
		ok     bool
	}{
		{
			name:   "single wlan route",
			output: "192.168.1.0/24 dev wlan0 proto kernel scope link src 192.168.1.22\n",
			want:   "192.168.1.22",
			ok:     true,
		},
		{
			name: "prefers wlan over rmnet",
			output: "10.120.4.0/24 dev rmnet_data1 proto kernel scope link src 10.120.4.7\n" +
				"10.0.0.0/24 dev wlan0 proto kernel scope link src 10.0.0.5\n",
			want: "10.0.0.5",
			ok:   true,
		},
		{
			name:   "falls back to first src",
			output: "10.120.4.0/24 dev rmnet_data1 proto kernel scope link src 10.120.4.7\n",
			want:   "10.120.4.7",
			ok:     true,
		},
		{
			name:   "no route",
			output: "",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseRouteIP(tt.output)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
