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
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
)

const (
	defaultWirelessPort    = 5555
	defaultWirelessSettle  = 2 * time.Second
	defaultConnectAttempts = 3
	defaultConnectBackoff  = time.Second
)

// Config tunes the adb client.
type Config struct {
	Path            string
	CommandTimeout  time.Duration
	WirelessPort    int
	WirelessSettle  time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Client implements Probe by shelling out to adb.
type Client struct {
	cfg    Config
	runner Runner
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewClient returns a client; a nil runner uses ExecRunner.
func NewClient(cfg Config, runner Runner, log logger.Logger) *Client {
	if cfg.Path == "" {
		cfg.Path = "adb"
	}

	if cfg.WirelessPort == 0 {
		cfg.WirelessPort = defaultWirelessPort
	}

	if cfg.WirelessSettle == 0 {
		cfg.WirelessSettle = defaultWirelessSettle
	}

	if cfg.ConnectAttempts < 1 {
		cfg.ConnectAttempts = defaultConnectAttempts
	}

	if cfg.ConnectBackoff <= 0 {
		cfg.ConnectBackoff = defaultConnectBackoff
	}

	if runner == nil {
		runner = ExecRunner{}
	}

	return &Client{
		cfg:    cfg,
		runner: runner,
		logger: log,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if c.cfg.CommandTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.cfg.CommandTimeout)
		defer cancel()
	}

	out, err := c.runner.Run(ctx, c.cfg.Path, args...)
	if err != nil {
		c.logger.Debug().
			Strs("args", args).
			Str("output", strings.TrimSpace(string(out))).
			Err(err).
			Msg("adb command failed")

		return string(out), fmt.Errorf("%w: adb %s: %w", ErrCommandFailed, strings.Join(args, " "), err)
	}

	return string(out), nil
}

func (c *Client) shell(ctx context.Context, id string, args ...string) (string, error) {
	if id == "" {
		return "", ErrEmptyDeviceID
	}

	return c.run(ctx, append([]string{"-s", id, "shell"}, args...)...)
}

// StartServer makes sure the adb daemon is running.
func (c *Client) StartServer(ctx context.Context) error {
	_, err := c.run(ctx, "start-server")

	return err
}

// ListDevices implements Probe.
func (c *Client) ListDevices(ctx context.Context) ([]models.RawDevice, error) {
	out, err := c.run(ctx, "devices", "-l")
	if err != nil {
		return nil, err
	}

	return ParseDeviceList(out), nil
}

// GetBatteryLevel implements Probe.
func (c *Client) GetBatteryLevel(ctx context.Context, id string) (int, error) {
	out, err := c.shell(ctx, id, "dumpsys", "battery")
	if err != nil {
		return -1, err
	}

	level, ok := ParseBatteryLevel(out)
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrBatteryUnavailable, id)
	}

	return level, nil
}

// GetScreenDimensions implements Probe. `wm size` is used when dumpsys display
// does not report a resolution.
func (c *Client) GetScreenDimensions(ctx context.Context, id string) (models.ScreenSize, error) {
	out, err := c.shell(ctx, id, "dumpsys", "display")
	if err == nil {
		if size, ok := ParseDisplayDimensions(out); ok {
			return size, nil
		}
	}

	out, wmErr := c.shell(ctx, id, "wm", "size")
	if wmErr == nil {
		if size, ok := ParseWMSize(out); ok {
			return size, nil
		}
	}

	return models.ScreenSize{}, fmt.Errorf("%w: %s: %w", ErrScreenUnavailable, id, errors.Join(err, wmErr))
}

// GetDeviceIPAddress implements Probe.
func (c *Client) GetDeviceIPAddress(ctx context.Context, id string) (string, error) {
	out, err := c.shell(ctx, id, "ip", "route")
	if err != nil {
		return "", err
	}

	ip, ok := ParseRouteIP(out)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoIPAddress, id)
	}

	return ip, nil
}

// GetSerialNumber implements Probe.
func (c *Client) GetSerialNumber(ctx context.Context, id string) (string, error) {
	for _, prop := range []string{"ro.boot.serialno", "ro.serialno"} {
		out, err := c.shell(ctx, id, "getprop", prop)
		if err != nil {
			return "", err
		}

		if serial := strings.TrimSpace(out); serial != "" {
			return serial, nil
		}
	}

	return "", nil
}

// EnableWirelessAndConnect implements Probe.
func (c *Client) EnableWirelessAndConnect(ctx context.Context, id string) (*models.WirelessResult, error) {
	result := &models.WirelessResult{OldID: id}

	ip, err := c.GetDeviceIPAddress(ctx, id)
	if err != nil {
		return result, err
	}

	result.IPAddress = ip
	port := strconv.Itoa(c.cfg.WirelessPort)

	out, err := c.run(ctx, "-s", id, "tcpip", port)
	if err != nil {
		return result, err
	}

	if !strings.Contains(out, "restarting in TCP mode") {
		return result, fmt.Errorf("%w: %s: %s", ErrTCPIPRejected, id, strings.TrimSpace(out))
	}

	if err := c.sleep(ctx, c.cfg.WirelessSettle); err != nil {
		return result, err
	}

	addr := net.JoinHostPort(ip, port)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.ConnectBackoff

	operation := func() (struct{}, error) {
		err := c.Connect(ctx, addr)
		if err != nil {
			c.logger.Debug().Err(err).Str("addr", addr).Msg("Wireless connect attempt failed")
		}

		return struct{}{}, err
	}

	if _, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.cfg.ConnectAttempts))); err != nil {
		return result, err
	}

	result.Success = true
	result.NewID = addr

	c.logger.Info().
		Str("old_id", id).
		Str("new_id", addr).
		Msg("Device switched to wireless transport")

	return result, nil
}

// Connect implements Probe. An address without a port gets the wireless port.
func (c *Client) Connect(ctx context.Context, addr string) error {
	addr = models.WithDefaultPort(addr, c.cfg.WirelessPort)

	out, err := c.run(ctx, "connect", addr)
	if err != nil {
		return err
	}

	if !strings.Contains(out, "connected") {
		return fmt.Errorf("%w: %s: %s", ErrConnectRejected, addr, strings.TrimSpace(out))
	}

	return nil
}

// Disconnect implements Probe.
func (c *Client) Disconnect(ctx context.Context, addr string) error {
	out, err := c.run(ctx, "disconnect", addr)
	if err != nil {
		return err
	}

	if !strings.Contains(out, "disconnected") {
		return fmt.Errorf("%w: %s: %s", ErrDisconnectRejected, addr, strings.TrimSpace(out))
	}

	return nil
}

// Reboot implements Probe. adb prints nothing on success, so the exit status decides.
func (c *Client) Reboot(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyDeviceID
	}

	_, err := c.run(ctx, "-s", id, "reboot")

	return err
}

var _ Probe = (*Client)(nil)
