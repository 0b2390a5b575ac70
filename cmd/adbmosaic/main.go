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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/adbmosaic/cmd/adbmosaic/app"
	"github.com/carverauto/adbmosaic/pkg/cli"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		cli.ShowHelp(os.Stderr)

		return err
	}

	if cfg.Help {
		cli.ShowHelp(os.Stdout)

		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.NeedsService() {
		return cli.Run(ctx, nil, cfg, os.Stdout)
	}

	rt, err := app.Build(ctx, app.Options{ConfigPath: cfg.ConfigFile, Debug: cfg.Debug})
	if err != nil {
		return err
	}

	runErr := cli.Run(ctx, rt.Service, cfg, os.Stdout)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := rt.Close(closeCtx); err != nil {
		rt.Logger.Warn().Err(err).Msg("Shutdown did not complete cleanly")
	}

	return runErr
}
