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

// Package cli parses the adbmosaic command line and runs subcommands against
// the command service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/carverauto/adbmosaic/pkg/models"
	"github.com/carverauto/adbmosaic/pkg/version"
)

const defaultWatchInterval = 5 * time.Second

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

// ArgsHandler handles subcommands that take only positional arguments.
type ArgsHandler struct {
	Name    string
	MinArgs int
	MaxArgs int
}

// Parse processes the command-line arguments for a positional-only subcommand.
func (h ArgsHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(h.Name, cfg)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing %s flags: %w", h.Name, err)
	}

	return setArgs(h.Name, fs.Args(), h.MinArgs, h.MaxArgs, cfg)
}

// StreamHandler handles flags for the stream subcommand.
type StreamHandler struct{}

// Parse processes the command-line arguments for the stream subcommand.
func (StreamHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("stream", cfg)
	opts := &cfg.Stream

	x := fs.Int("x", 0, "window x position")
	y := fs.Int("y", 0, "window y position")
	displayID := fs.Int("display-id", 0, "device display to mirror")
	fs.IntVar(&opts.Width, "width", 0, "window width")
	fs.IntVar(&opts.Height, "height", 0, "window height")
	fs.IntVar(&opts.MaxFPS, "fps", 0, "frame rate cap")
	fs.IntVar(&opts.BitrateKbps, "bitrate", 0, "video bitrate in Kbps")
	fs.IntVar(&opts.MaxSize, "max-size", 0, "cap the longest dimension")
	fs.StringVar(&opts.Crop, "crop", "", "crop region w:h:x:y")
	fs.StringVar(&opts.Title, "title", "", "window title")
	fs.BoolVar(&opts.Borderless, "borderless", false, "borderless window")
	fs.BoolVar(&opts.AlwaysOnTop, "always-on-top", false, "keep the window on top")
	fs.BoolVar(&opts.Fullscreen, "fullscreen", false, "start fullscreen")
	fs.BoolVar(&opts.NoControl, "no-control", false, "view only")
	fs.BoolVar(&opts.NoAudio, "no-audio", false, "do not forward audio")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing stream flags: %w", err)
	}

	if fs.Changed("x") || fs.Changed("y") {
		opts.X = models.IntPtr(*x)
		opts.Y = models.IntPtr(*y)
	}

	if fs.Changed("display-id") {
		opts.DisplayID = models.IntPtr(*displayID)
	}

	return setArgs("stream", fs.Args(), 1, 1, cfg)
}

// MosaicHandler handles flags for the mosaic subcommand.
type MosaicHandler struct{}

// Parse processes the command-line arguments for the mosaic subcommand.
func (MosaicHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("mosaic", cfg)
	fs.IntVar(&cfg.Screen.Width, "screen-width", 0, "mosaic area width")
	fs.IntVar(&cfg.Screen.Height, "screen-height", 0, "mosaic area height")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing mosaic flags: %w", err)
	}

	cfg.Args = fs.Args()

	return nil
}

// WatchHandler handles flags for the watch subcommand.
type WatchHandler struct{}

// Parse processes the command-line arguments for the watch subcommand.
func (WatchHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("watch", cfg)
	fs.DurationVar(&cfg.Interval, "interval", defaultWatchInterval, "refresh interval")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing watch flags: %w", err)
	}

	if cfg.Interval <= 0 {
		cfg.Interval = defaultWatchInterval
	}

	return setArgs("watch", fs.Args(), 0, 0, cfg)
}

func newFlagSet(name string, cfg *CmdConfig) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVarP(&cfg.Help, "help", "h", cfg.Help, "show help message")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print JSON instead of a table")
	fs.BoolVar(&cfg.NoRefresh, "no-refresh", cfg.NoRefresh, "skip the device scan before the command")

	return fs
}

func setArgs(name string, args []string, minArgs, maxArgs int, cfg *CmdConfig) error {
	if cfg.Help {
		cfg.Args = args

		return nil
	}

	if len(args) < minArgs {
		return fmt.Errorf("%w: %s needs %d", errMissingArgument, name, minArgs)
	}

	if len(args) > maxArgs {
		return fmt.Errorf("%w: %s takes at most %d", errTooManyArguments, name, maxArgs)
	}

	cfg.Args = args

	return nil
}

func subcommands() map[string]SubcommandHandler {
	return map[string]SubcommandHandler{
		"devices":    ArgsHandler{Name: "devices"},
		"refresh":    ArgsHandler{Name: "refresh"},
		"connect":    ArgsHandler{Name: "connect", MinArgs: 1, MaxArgs: 1},
		"disconnect": ArgsHandler{Name: "disconnect", MinArgs: 1, MaxArgs: 1},
		"reboot":     ArgsHandler{Name: "reboot", MinArgs: 1, MaxArgs: 1},
		"convert":    ArgsHandler{Name: "convert", MinArgs: 1, MaxArgs: 1},
		"rename":     ArgsHandler{Name: "rename", MinArgs: 2, MaxArgs: 2},
		"remove":     ArgsHandler{Name: "remove", MinArgs: 1, MaxArgs: 1},
		"version":    ArgsHandler{Name: "version"},
		"stream":     StreamHandler{},
		"mosaic":     MosaicHandler{},
		"watch":      WatchHandler{},
	}
}

// ParseFlags parses global flags, then the subcommand and its flags.
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{}

	fs := pflag.NewFlagSet("adbmosaic", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)
	fs.BoolVarP(&cfg.Help, "help", "h", false, "show help message")
	fs.StringVarP(&cfg.ConfigFile, "config", "c", "", "path to a JSON or YAML config file")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	fs.BoolVar(&cfg.JSON, "json", false, "print JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("parsing flags: %w", err)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		cfg.Help = true

		return cfg, nil
	}

	cfg.SubCmd = rest[0]

	handler, ok := subcommands()[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %q", errUnknownSubcommand, cfg.SubCmd)
	}

	if err := handler.Parse(rest[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// NeedsService reports whether the parsed command talks to devices.
func (c *CmdConfig) NeedsService() bool {
	return !c.Help && c.SubCmd != "" && c.SubCmd != "version"
}

// Run executes the parsed subcommand. Long-running commands return when ctx
// is cancelled, after stopping their streams.
func Run(ctx context.Context, cmds Commands, cfg *CmdConfig, out io.Writer) error {
	r := newRenderer(out, cfg.JSON)

	switch cfg.SubCmd {
	case "version":
		return r.line(version.GetFullVersion())
	case "devices":
		return r.devices(cmds.Devices(), cmds.ListActiveStreams())
	case "refresh":
		return runRefresh(ctx, cmds, r)
	case "connect":
		return r.result(cmds.Connect(ctx, cfg.Args[0]))
	case "stream":
		return runStream(ctx, cmds, cfg, r)
	case "mosaic":
		return runMosaic(ctx, cmds, cfg, r)
	case "watch":
		return runWatch(ctx, cmds, cfg.Interval, r)
	}

	if !cfg.NoRefresh {
		prime(ctx, cmds, r)
	}

	id := cfg.Args[0]

	switch cfg.SubCmd {
	case "disconnect":
		return r.result(cmds.Disconnect(ctx, id))
	case "reboot":
		return r.result(cmds.Reboot(ctx, id))
	case "convert":
		return r.result(cmds.ConvertToWireless(ctx, id))
	case "rename":
		return r.result(cmds.Rename(ctx, id, cfg.Args[1]))
	case "remove":
		return r.result(cmds.Remove(ctx, id))
	}

	return fmt.Errorf("%w: %q", errUnknownSubcommand, cfg.SubCmd)
}

// prime reconciles before a device-addressed command so transport ids
// resolve. A failed scan is reported but does not stop the command.
func prime(ctx context.Context, cmds Commands, r *renderer) {
	if _, res := cmds.Refresh(ctx); !res.Success {
		_ = r.warn(res.Message)
	}
}

func runRefresh(ctx context.Context, cmds Commands, r *renderer) error {
	res, result := cmds.Refresh(ctx)
	if !result.Success {
		return r.result(result)
	}

	if err := r.devices(res.Devices, cmds.ListActiveStreams()); err != nil {
		return err
	}

	return r.refreshSummary(res)
}

func runStream(ctx context.Context, cmds Commands, cfg *CmdConfig, r *renderer) error {
	if !cmds.MirrorToolAvailable(ctx) {
		return errMirrorUnavailable
	}

	if !cfg.NoRefresh {
		prime(ctx, cmds, r)
	}

	if err := r.result(cmds.StartStream(ctx, cfg.Args[0], cfg.Stream)); err != nil {
		return err
	}

	return superviseUntilDone(ctx, cmds, r)
}

func runMosaic(ctx context.Context, cmds Commands, cfg *CmdConfig, r *renderer) error {
	if !cmds.MirrorToolAvailable(ctx) {
		return errMirrorUnavailable
	}

	ids := cfg.Args

	res, result := cmds.Refresh(ctx)
	if !result.Success {
		_ = r.warn(result.Message)
	} else if len(ids) == 0 {
		ids = res.TCPConnected
	}

	if err := r.result(cmds.StartMosaic(ctx, ids, cfg.Screen)); err != nil {
		return err
	}

	return superviseUntilDone(ctx, cmds, r)
}

// superviseUntilDone blocks until ctx is cancelled, then stops every stream.
func superviseUntilDone(ctx context.Context, cmds Commands, r *renderer) error {
	_ = r.hint("Streaming; press Ctrl+C to stop.")

	<-ctx.Done()

	return r.result(cmds.StopAllStreams(context.WithoutCancel(ctx)))
}

func runWatch(ctx context.Context, cmds Commands, interval time.Duration, r *renderer) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := runRefresh(ctx, cmds, r); err != nil && !errors.Is(err, errActionFailed) {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
