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
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/carverauto/adbmosaic/pkg/models"
	"github.com/carverauto/adbmosaic/pkg/registry"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaComment    = "#6272A4"
)

type styles struct {
	header, cell, dim, hint, success, error lipgloss.Style
}

func newStyles(lr *lipgloss.Renderer) styles {
	return styles{
		header: lr.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true).
			Padding(0, 1),
		cell: lr.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)).
			Padding(0, 1),
		dim: lr.NewStyle().
			Foreground(lipgloss.Color(draculaComment)).
			Padding(0, 1),
		hint: lr.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		success: lr.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		error: lr.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
	}
}

type renderer struct {
	out    io.Writer
	json   bool
	styles styles
	border lipgloss.Style
}

func newRenderer(out io.Writer, asJSON bool) *renderer {
	lr := lipgloss.NewRenderer(out)

	return &renderer{
		out:    out,
		json:   asJSON,
		styles: newStyles(lr),
		border: lr.NewStyle().Foreground(lipgloss.Color(draculaCyan)),
	}
}

type deviceView struct {
	*models.Device
	Streaming bool `json:"streaming"`
}

func (r *renderer) line(s string) error {
	_, err := fmt.Fprintln(r.out, s)

	return err
}

func (r *renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// result prints an ActionResult and turns a failure into errActionFailed.
func (r *renderer) result(res models.ActionResult) error {
	var err error

	switch {
	case r.json:
		err = r.writeJSON(res)
	case res.Success:
		err = r.line(r.styles.success.Render("✔ " + res.Message))
	default:
		err = r.line(r.styles.error.Render("✘ " + res.Message))
	}

	if err != nil {
		return err
	}

	if !res.Success {
		return fmt.Errorf("%w: %s", errActionFailed, res.Message)
	}

	return nil
}

func (r *renderer) warn(msg string) error {
	if r.json {
		return nil
	}

	return r.line(r.styles.hint.Render("! " + msg))
}

func (r *renderer) hint(msg string) error {
	if r.json {
		return nil
	}

	return r.line(r.styles.hint.Render(msg))
}

func (r *renderer) devices(devices []*models.Device, active []string) error {
	if r.json {
		views := make([]deviceView, 0, len(devices))
		for _, d := range devices {
			views = append(views, deviceView{Device: d, Streaming: slices.Contains(active, d.Identity)})
		}

		return r.writeJSON(views)
	}

	if len(devices) == 0 {
		return r.hint("No devices known.")
	}

	rows := make([][]string, 0, len(devices))
	connected := make([]bool, 0, len(devices))

	for _, d := range devices {
		rows = append(rows, deviceRow(d, slices.Contains(active, d.Identity)))
		connected = append(connected, d.Connected())
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.border).
		Headers("IDENTITY", "NAME", "MODEL", "USB", "TCP", "IP", "BATTERY", "SCREEN", "STREAM").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return r.styles.header
			case row >= 0 && row < len(connected) && !connected[row]:
				return r.styles.dim
			default:
				return r.styles.cell
			}
		})

	return r.line(t.String())
}

func deviceRow(d *models.Device, streaming bool) []string {
	battery := "-"
	if d.BatteryLevel != nil {
		battery = strconv.Itoa(*d.BatteryLevel) + "%"
	}

	screen := "-"
	if size, ok := d.ScreenSize(); ok {
		screen = fmt.Sprintf("%dx%d", size.Width, size.Height)
	}

	return []string{
		d.Identity,
		d.Name,
		orDash(d.Model),
		transportCell(d.USBConnected, d.Transport.USB),
		transportCell(d.TCPConnected, d.Transport.TCP),
		orDash(d.IP),
		battery,
		screen,
		yesNo(streaming),
	}
}

func transportCell(connected bool, id string) string {
	if !connected {
		return "-"
	}

	return orDash(id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}

func (r *renderer) refreshSummary(res *registry.Result) error {
	if r.json {
		return nil
	}

	for _, s := range res.Skipped {
		if err := r.warn(fmt.Sprintf("skipped %s (%s): %s", s.ID, s.Status, s.Reason)); err != nil {
			return err
		}
	}

	for _, p := range res.Promotions {
		msg := "promoted " + p.Identity + " to wireless"
		if p.Result != nil && p.Result.NewID != "" {
			msg += " at " + p.Result.NewID
		}

		if p.Err != nil {
			msg = fmt.Sprintf("wireless promotion of %s failed: %v", p.Identity, p.Err)
		}

		if err := r.hint(msg); err != nil {
			return err
		}
	}

	if len(res.Purged) > 0 {
		if err := r.hint("purged stale records: " + strings.Join(res.Purged, ", ")); err != nil {
			return err
		}
	}

	return nil
}
