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
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
)

type response struct {
	out string
	err error
}

// fakeRunner replays canned responses keyed by the joined argument list.
// Queued responses for one key are consumed in order; the last one repeats.
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string][]response
	calls     []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string][]response)}
}

func (f *fakeRunner) on(cmd, out string, err error) *fakeRunner {
	f.responses[cmd] = append(f.responses[cmd], response{out: out, err: err})
	return f
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)

	queue, ok := f.responses[key]
	if !ok || len(queue) == 0 {
		return nil, errors.New("unexpected command: " + key)
	}

	resp := queue[0]
	if len(queue) > 1 {
		f.responses[key] = queue[1:]
	}

	return []byte(resp.out), resp.err
}

func (f *fakeRunner) count(cmd string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, c := range f.calls {
		if c == cmd {
			n++
		}
	}

	return n
}

func newTestClient(runner Runner) *Client {
	c := NewClient(Config{
		WirelessSettle:  time.Millisecond,
		ConnectAttempts: 3,
		ConnectBackoff:  time.Millisecond,
	}, runner, logger.NewTestLogger())
	c.sleep = func(context.Context, time.Duration) error { return nil }

	return c
}

func TestClientListDevices(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().on("devices -l",
		"List of devices attached\nUSB1 device product:p model:Pixel transport_id:1\n", nil)

	devices, err := newTestClient(runner).ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "USB1", devices[0].ID)
	assert.Equal(t, "Pixel", devices[0].Model)
}

func TestClientListDevicesFailure(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().on("devices -l", "", errors.New("exec: \"adb\": executable file not found"))

	_, err := newTestClient(runner).ListDevices(context.Background())
	require.ErrorIs(t, err, ErrCommandFailed)
}

func TestClientBatteryLevel(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().
		on("-s USB1 shell dumpsys battery", "  level: 57\n", nil).
		on("-s USB2 shell dumpsys battery", "error: device offline", nil)

	c := newTestClient(runner)

	level, err := c.GetBatteryLevel(context.Background(), "USB1")
	require.NoError(t, err)
	assert.Equal(t, 57, level)

	level, err = c.GetBatteryLevel(context.Background(), "USB2")
	require.ErrorIs(t, err, ErrBatteryUnavailable)
	assert.Equal(t, -1, level)
}

func TestClientScreenDimensionsFallsBackToWMSize(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().
		on("-s USB1 shell dumpsys display", "no display info", nil).
		on("-s USB1 shell wm size", "Physical size: 1080x2400\n", nil)

	size, err := newTestClient(runner).GetScreenDimensions(context.Background(), "USB1")
	require.NoError(t, err)
	assert.Equal(t, models.ScreenSize{Width: 1080, Height: 2400}, size)
}

func TestClientScreenDimensionsUnavailable(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().
		on("-s USB1 shell dumpsys display", "", errors.New("closed")).
		on("-s USB1 shell wm size", "", nil)

	_, err := newTestClient(runner).GetScreenDimensions(context.Background(), "USB1")
	require.ErrorIs(t, err, ErrScreenUnavailable)
}

func TestClientSerialNumberFallback(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().
		on("-s USB1 shell getprop ro.boot.serialno", "\n", nil).
		on("-s USB1 shell getprop ro.serialno", "SN123\n", nil)

	serial, err := newTestClient(runner).GetSerialNumber(context.Background(), "USB1")
	require.NoError(t, err)
	assert.Equal(t, "SN123", serial)
}

func TestClientEnableWirelessAndConnect(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().
		on("-s USB1 shell ip route", "10.0.0.0/24 dev wlan0 proto kernel scope link src 10.0.0.5\n", nil).
		on("-s USB1 tcpip 5555", "restarting in TCP mode port: 5555\n", nil).
		on("connect 10.0.0.5:5555", "failed to connect to '10.0.0.5:5555': Connection refused\n", nil).
		on("connect 10.0.0.5:5555", "connected to 10.0.0.5:5555\n", nil)

	result, err := newTestClient(runner).EnableWirelessAndConnect(context.Background(), "USB1")
	require.NoError(t, err)

	assert.Equal(t, &models.WirelessResult{
		Success:   true,
		IPAddress: "10.0.0.5",
		OldID:     "USB1",
		NewID:     "10.0.0.5:5555",
	}, result)
	assert.Equal(t, 2, runner.count("connect 10.0.0.5:5555"))
}

func TestClientEnableWirelessRejected(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().
		on("-s USB1 shell ip route", "10.0.0.0/24 dev wlan0 proto kernel scope link src 10.0.0.5\n", nil).
		on("-s USB1 tcpip 5555", "error: closed\n", nil)

	result, err := newTestClient(runner).EnableWirelessAndConnect(context.Background(), "USB1")
	require.ErrorIs(t, err, ErrTCPIPRejected)
	assert.False(t, result.Success)
	assert.Equal(t, "10.0.0.5", result.IPAddress)
	assert.Empty(t, result.NewID)
	assert.Zero(t, runner.count("connect 10.0.0.5:5555"))
}

func TestClientEnableWirelessConnectExhausted(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().
		on("-s USB1 shell ip route", "default via 10.0.0.1 dev wlan0 src 10.0.0.5\n", nil).
		on("-s USB1 tcpip 5555", "restarting in TCP mode port: 5555\n", nil).
		on("connect 10.0.0.5:5555", "cannot connect to 10.0.0.5:5555: No route to host\n", nil)

	result, err := newTestClient(runner).EnableWirelessAndConnect(context.Background(), "USB1")
	require.ErrorIs(t, err, ErrConnectRejected)
	assert.False(t, result.Success)
	assert.Equal(t, 3, runner.count("connect 10.0.0.5:5555"))
}

func TestClientEnableWirelessNoIP(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().on("-s USB1 shell ip route", "", nil)

	result, err := newTestClient(runner).EnableWirelessAndConnect(context.Background(), "USB1")
	require.ErrorIs(t, err, ErrNoIPAddress)
	assert.Equal(t, "USB1", result.OldID)
	assert.Zero(t, runner.count("-s USB1 tcpip 5555"))
}

func TestClientConnectAddsDefaultPort(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().
		on("connect 10.0.0.9:5555", "already connected to 10.0.0.9:5555\n", nil).
		on("disconnect 10.0.0.9:5555", "disconnected 10.0.0.9:5555\n", nil).
		on("disconnect 10.0.0.8:5555", "error: no such device '10.0.0.8:5555'\n", nil)

	c := newTestClient(runner)

	require.NoError(t, c.Connect(context.Background(), "10.0.0.9"))
	require.NoError(t, c.Disconnect(context.Background(), "10.0.0.9:5555"))
	require.ErrorIs(t, c.Disconnect(context.Background(), "10.0.0.8:5555"), ErrDisconnectRejected)
}

func TestClientReboot(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner().on("-s SN1 reboot", "", nil)

	c := newTestClient(runner)
	require.NoError(t, c.Reboot(context.Background(), "SN1"))
	require.ErrorIs(t, c.Reboot(context.Background(), ""), ErrEmptyDeviceID)
}
