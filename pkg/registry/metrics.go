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

package registry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "adbmosaic.registry"

	metricReconcileTotal    = "registry_reconcile_total"
	metricReconcileDuration = "registry_reconcile_duration_ms"
	metricSkippedTotal      = "registry_skipped_total"
	metricPromotionTotal    = "registry_promotion_total"
	metricPurgedTotal       = "registry_purged_total"
	metricWriteFailureTotal = "registry_write_failure_total"

	outcomeOK                   = "ok"
	outcomeTransportUnavailable = "transport_unavailable"
	outcomeStoreError           = "store_error"
	outcomeNotReady             = "not_ready"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	reconcileCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	reconcileDuration metric.Float64Histogram
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	skippedCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	promotionCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	purgedCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	writeFailureCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	var err error

	if reconcileCounter, err = meter.Int64Counter(
		metricReconcileTotal,
		metric.WithDescription("Reconciliation passes by outcome"),
	); err != nil {
		otel.Handle(err)
	}

	if reconcileDuration, err = meter.Float64Histogram(
		metricReconcileDuration,
		metric.WithDescription("Reconciliation pass duration"),
		metric.WithUnit("ms"),
	); err != nil {
		otel.Handle(err)
	}

	if skippedCounter, err = meter.Int64Counter(
		metricSkippedTotal,
		metric.WithDescription("Scan entries skipped as non-actionable or unreachable"),
	); err != nil {
		otel.Handle(err)
	}

	if promotionCounter, err = meter.Int64Counter(
		metricPromotionTotal,
		metric.WithDescription("Wireless promotions by result"),
	); err != nil {
		otel.Handle(err)
	}

	if purgedCounter, err = meter.Int64Counter(
		metricPurgedTotal,
		metric.WithDescription("Legacy or duplicate device records purged"),
	); err != nil {
		otel.Handle(err)
	}

	if writeFailureCounter, err = meter.Int64Counter(
		metricWriteFailureTotal,
		metric.WithDescription("Device record writes that failed"),
	); err != nil {
		otel.Handle(err)
	}
}

func recordReconcile(ctx context.Context, outcome string, elapsed time.Duration) {
	meterOnce.Do(initMeter)

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	if reconcileCounter != nil {
		reconcileCounter.Add(ctx, 1, attrs)
	}

	if reconcileDuration != nil {
		reconcileDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
}

func recordSkipped(ctx context.Context, n int) {
	if n == 0 {
		return
	}

	meterOnce.Do(initMeter)
	if skippedCounter == nil {
		return
	}

	skippedCounter.Add(ctx, int64(n))
}

func recordPromotion(ctx context.Context, success bool) {
	meterOnce.Do(initMeter)
	if promotionCounter == nil {
		return
	}

	promotionCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

func recordPurged(ctx context.Context, n int) {
	if n == 0 {
		return
	}

	meterOnce.Do(initMeter)
	if purgedCounter == nil {
		return
	}

	purgedCounter.Add(ctx, int64(n))
}

func recordWriteFailure(ctx context.Context) {
	meterOnce.Do(initMeter)
	if writeFailureCounter == nil {
		return
	}

	writeFailureCounter.Add(ctx, 1)
}
