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

package guardian

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "adbmosaic.guardian"

	metricCleanupTotal = "guardian_cleanup_total"
	metricKillTotal    = "guardian_kill_total"

	outcomeOK      = "ok"
	outcomeSkipped = "skipped"
	outcomeError   = "error"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	cleanupCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	killCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	cleanup, err := meter.Int64Counter(
		metricCleanupTotal,
		metric.WithDescription("Cleanup passes by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}
	cleanupCounter = cleanup

	kill, err := meter.Int64Counter(
		metricKillTotal,
		metric.WithDescription("Stray adb processes killed, by result"),
	)
	if err != nil {
		otel.Handle(err)
	}
	killCounter = kill
}

func recordCleanup(ctx context.Context, outcome string) {
	meterOnce.Do(initMeter)
	if cleanupCounter == nil {
		return
	}

	cleanupCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func recordKills(ctx context.Context, killed, failed int) {
	meterOnce.Do(initMeter)
	if killCounter == nil {
		return
	}

	if killed > 0 {
		killCounter.Add(ctx, int64(killed), metric.WithAttributes(attribute.Bool("success", true)))
	}

	if failed > 0 {
		killCounter.Add(ctx, int64(failed), metric.WithAttributes(attribute.Bool("success", false)))
	}
}
