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
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/carverauto/adbmosaic/pkg/models"
)

var (
	batteryLevelPattern  = regexp.MustCompile(`level:\s*(\d+)`)
	displayWidthPattern  = regexp.MustCompile(`width=(\d+)`)
	displayHeightPattern = regexp.MustCompile(`height=(\d+)`)
	wmSizePattern        = regexp.MustCompile(`Physical size:\s*(\d+)x(\d+)`)
	routeSrcPattern      = regexp.MustCompile(`src\s+(\d+\.\d+\.\d+\.\d+)`)
)

const devicesHeader = "List of devices attached"

// ParseDeviceList parses `adb devices -l` output. Daemon banner lines
// ("* daemon started successfully") and the header are ignored.
func ParseDeviceList(output string) []models.RawDevice {
	var devices []models.RawDevice

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == devicesHeader || strings.HasPrefix(line, "*") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		dev := models.RawDevice{
			ID:     fields[0],
			IP:     models.HostFromTransportID(fields[0]),
			Status: models.DeviceStatus(fields[1]),
		}

		rest := fields[2:]
		if fields[1] == "no" && len(fields) > 2 && fields[2] == "permissions" {
			dev.Status = models.DeviceStatusNoPermissions
			rest = fields[3:]
		}

		for _, field := range rest {
			key, value, ok := strings.Cut(field, ":")
			if !ok {
				continue
			}

			switch key {
			case "model":
				dev.Model = strings.ReplaceAll(value, "_", " ")
			case "product":
				dev.Product = value
			}
		}

		devices = append(devices, dev)
	}

	return devices
}

// ParseBatteryLevel extracts the level from `dumpsys battery`.
func ParseBatteryLevel(output string) (int, bool) {
	m := batteryLevelPattern.FindStringSubmatch(output)
	if m == nil {
		return -1, false
	}

	level, err := strconv.Atoi(m[1])
	if err != nil {
		return -1, false
	}

	return level, true
}

// ParseDisplayDimensions extracts the first width/height pair from `dumpsys display`.
func ParseDisplayDimensions(output string) (models.ScreenSize, bool) {
	w := displayWidthPattern.FindStringSubmatch(output)
	h := displayHeightPattern.FindStringSubmatch(output)

	if w == nil || h == nil {
		return models.ScreenSize{}, false
	}

	return toScreenSize(w[1], h[1])
}

// ParseWMSize extracts the physical size from `wm size`.
func ParseWMSize(output string) (models.ScreenSize, bool) {
	m := wmSizePattern.FindStringSubmatch(output)
	if m == nil {
		return models.ScreenSize{}, false
	}

	return toScreenSize(m[1], m[2])
}

func toScreenSize(ws, hs string) (models.ScreenSize, bool) {
	width, errW := strconv.Atoi(ws)
	height, errH := strconv.Atoi(hs)

	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return models.ScreenSize{}, false
	}

	return models.ScreenSize{Width: width, Height: height}, true
}

// ParseRouteIP returns the src address from `ip route`, preferring a wlan route.
func ParseRouteIP(output string) (string, bool) {
	var fallback string

	for _, line := range strings.Split(output, "\n") {
		m := routeSrcPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		if strings.Contains(line, "wlan") {
			return m[1], true
		}

		if fallback == "" {
			fallback = m[1]
		}
	}

	return fallback, fallback != ""
}
