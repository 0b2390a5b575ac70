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
	"net"
	"strconv"
	"strings"
	"time"
)

// DeviceStatus is the state column reported by `adb devices -l`.
type DeviceStatus string

const (
	DeviceStatusDevice        DeviceStatus = "device"
	DeviceStatusOffline       DeviceStatus = "offline"
	DeviceStatusUnauthorized  DeviceStatus = "unauthorized"
	DeviceStatusNoPermissions DeviceStatus = "no permissions"
	DeviceStatusRecovery      DeviceStatus = "recovery"
	DeviceStatusBootloader    DeviceStatus = "bootloader"
	DeviceStatusUnknown       DeviceStatus = "unknown"
)

// Actionable reports whether adb can run shell queries against a device in this state.
func (s DeviceStatus) Actionable() bool {
	return s == DeviceStatusDevice
}

// TransportKind distinguishes the two ways adb can reach a device.
type TransportKind string

const (
	TransportUSB TransportKind = "usb"
	TransportTCP TransportKind = "tcp"
)

// ClassifyTransport returns TransportTCP for host:port ids and TransportUSB otherwise.
func ClassifyTransport(transportID string) TransportKind {
	if strings.Contains(transportID, ":") {
		return TransportTCP
	}

	return TransportUSB
}

// HostFromTransportID returns the host part of a host:port transport id.
func HostFromTransportID(transportID string) string {
	if ClassifyTransport(transportID) != TransportTCP {
		return ""
	}

	idx := strings.LastIndex(transportID, ":")

	return transportID[:idx]
}

// WithDefaultPort appends port to addr unless addr already names one.
func WithDefaultPort(addr string, port int) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}

	return net.JoinHostPort(addr, strconv.Itoa(port))
}

// RawDevice is one entry of a transport-level device enumeration.
type RawDevice struct {
	ID      string       `json:"id"`
	IP      string       `json:"ip,omitempty"`
	Model   string       `json:"model,omitempty"`
	Product string       `json:"product,omitempty"`
	Status  DeviceStatus `json:"status"`
}

// TransportIDs holds the last transport ids observed for a device.
type TransportIDs struct {
	USB string `json:"usb,omitempty"`
	TCP string `json:"tcp,omitempty"`
}

// NameSource records who chose a device's display name.
type NameSource string

const (
	NameSourceAuto NameSource = "auto"
	NameSourceUser NameSource = "user"
)

// Device is the reconciled, persisted record for one physical Android device.
type Device struct {
	Identity     string       `json:"identity"`
	Transport    TransportIDs `json:"transport"`
	IP           string       `json:"ip,omitempty"`
	Name         string       `json:"name"`
	NameSource   NameSource   `json:"name_source,omitempty"`
	Model        string       `json:"model,omitempty"`
	BatteryLevel *int         `json:"battery_level,omitempty"`
	ScreenWidth  *int         `json:"screen_width,omitempty"`
	ScreenHeight *int         `json:"screen_height,omitempty"`
	USBConnected bool         `json:"usb_connected"`
	TCPConnected bool         `json:"tcp_connected"`
	IsStreaming  bool         `json:"is_streaming"`
	FirstSeen    time.Time    `json:"first_seen"`
	LastSeen     time.Time    `json:"last_seen"`
}

// Connected reports whether the device is reachable over any transport.
func (d *Device) Connected() bool {
	return d.USBConnected || d.TCPConnected
}

// StreamTarget returns the transport id a mirroring process should select,
// preferring the wireless transport.
func (d *Device) StreamTarget() string {
	switch {
	case d.TCPConnected && d.Transport.TCP != "":
		return d.Transport.TCP
	case d.USBConnected && d.Transport.USB != "":
		return d.Transport.USB
	case d.Transport.TCP != "":
		return d.Transport.TCP
	case d.Transport.USB != "":
		return d.Transport.USB
	default:
		return d.Identity
	}
}

// HasTransportID reports whether id names the device by identity or by any transport.
func (d *Device) HasTransportID(id string) bool {
	if id == "" {
		return false
	}

	return d.Identity == id || d.Transport.USB == id || d.Transport.TCP == id
}

// ScreenSize returns the last probed screen dimensions, if both are known.
func (d *Device) ScreenSize() (ScreenSize, bool) {
	if d.ScreenWidth == nil || d.ScreenHeight == nil || *d.ScreenWidth <= 0 || *d.ScreenHeight <= 0 {
		return ScreenSize{}, false
	}

	return ScreenSize{Width: *d.ScreenWidth, Height: *d.ScreenHeight}, true
}

// MarkDisconnected clears both connection flags and the live battery metric.
func (d *Device) MarkDisconnected() {
	d.USBConnected = false
	d.TCPConnected = false
	d.BatteryLevel = nil
}

// Clone returns a deep copy of the device.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}

	dst := *d
	dst.BatteryLevel = cloneInt(d.BatteryLevel)
	dst.ScreenWidth = cloneInt(d.ScreenWidth)
	dst.ScreenHeight = cloneInt(d.ScreenHeight)

	return &dst
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}

	out := *v

	return &out
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// WirelessResult is the outcome of switching a USB device to TCP/IP and connecting to it.
type WirelessResult struct {
	Success   bool   `json:"success"`
	IPAddress string `json:"ip_address,omitempty"`
	OldID     string `json:"old_id"`
	NewID     string `json:"new_id,omitempty"`
}
