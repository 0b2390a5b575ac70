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

package stream

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "adbmosaic.stream"

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	startCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	stopCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	activeGauge metric.Int64UpDownCounter
)

func initMeter() {
	meter := otel.Meter(meterName)

	start, err := meter.Int64Counter(
		"stream_start_total",
		metric.WithDescription("Stream start attempts by result"),
	)
	if err != nil {
		otel.Handle(err)
	}
	startCounter = start

	stop, err := meter.Int64Counter(
		"stream_stop_total",
		metric.WithDescription("Streams ended, by reason"),
	)
	if err != nil {
		otel.Handle(err)
	}
	stopCounter = stop

	active, err := meter.Int64UpDownCounter(
		"stream_active",
		metric.WithDescription("Currently running mirroring processes"),
	)
	if err != nil {
		otel.Handle(err)
	}
	activeGauge = active
}

func recordStart(ctx context.Context, success bool) {
	meterOnce.Do(initMeter)

	if startCounter != nil {
		startCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	}

	if success && activeGauge != nil {
		activeGauge.Add(ctx, 1)
	}
}

func recordStop(ctx context.Context) {
	recordEnd(ctx, "stopped")
}

func recordExit(ctx context.Context) {
	recordEnd(ctx, "exited")
}

func recordEnd(ctx context.Context, reason string) {
	meterOnce.Do(initMeter)

	if stopCounter != nil {
		stopCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}

	if activeGauge != nil {
		activeGauge.Add(ctx, -1)
	}
}
