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

package cli

import (
	"fmt"
	"io"
)

// ShowHelp writes the usage message.
func ShowHelp(w io.Writer) {
	fmt.Fprint(w, `adbmosaic: mirror Android devices over adb in a tiled mosaic

Usage:
  adbmosaic [global options] <command> [options] [args]

Commands:
  devices                 List known devices
  refresh                 Scan adb, reconcile and list devices
  connect <ip[:port]>     Connect to a device over TCP/IP (port defaults to 5555)
  disconnect <id>         Disconnect a device's TCP/IP transport
  reboot <id>             Reboot a device
  convert <id>            Switch a USB device to TCP/IP
  rename <id> <name>      Set a device's display name
  remove <id>             Forget a device
  stream <id>             Mirror one device until interrupted
  mosaic [id...]          Mirror devices tiled across the screen until interrupted
                          (all TCP/IP devices when no ids are given)
  watch                   Refresh periodically and print the device list
  version                 Print the version

Global options:
  -c, --config string     path to a JSON or YAML config file
      --debug             enable debug logging
      --json              print JSON instead of a table
  -h, --help              show this help message

Command options:
      --json              print JSON instead of a table
      --no-refresh        skip the device scan before device-addressed commands

Options for stream:
      --x, --y int            window position
      --width, --height int   window size
      --fps int               frame rate cap (default 25)
      --bitrate int           video bitrate in Kbps
      --max-size int          cap the longest dimension
      --crop string           crop region w:h:x:y
      --title string          window title
      --display-id int        device display to mirror
      --borderless            borderless window
      --always-on-top         keep the window on top
      --fullscreen            start fullscreen
      --no-control            view only
      --no-audio              do not forward audio

Options for mosaic:
      --screen-width int      mosaic area width (default from config)
      --screen-height int     mosaic area height (default from config)

Options for watch:
      --interval duration     refresh interval (default 5s)

Examples:
  adbmosaic refresh
  adbmosaic connect 192.168.1.40
  adbmosaic convert R58M123ABC
  adbmosaic mosaic --screen-width 3840 --screen-height 2160
`)
}
