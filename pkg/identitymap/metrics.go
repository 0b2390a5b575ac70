package identitymap

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName           = "adbmosaic.identitymap"
	metricLookupTotal   = "identitymap_lookup_total"
	metricConflictTotal = "identitymap_conflict_total"
)

var (
	// instrumentation handles are cached globally to avoid re-registering OTEL instruments on every call.
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	lookupCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	conflictCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	lookup, err := meter.Int64Counter(
		metricLookupTotal,
		metric.WithDescription("Total identity lookups by any transport id"),
	)
	if err != nil {
		otel.Handle(err)
	}
	lookupCounter = lookup

	conflict, err := meter.Int64Counter(
		metricConflictTotal,
		metric.WithDescription("Total transport ids found claimed by more than one identity"),
	)
	if err != nil {
		otel.Handle(err)
	}
	conflictCounter = conflict
}

// RecordLookup counts an identity lookup and whether it resolved.
func RecordLookup(ctx context.Context, found bool) {
	meterOnce.Do(initMeter)
	if lookupCounter == nil {
		return
	}

	lookupCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("found", found)))
}

// RecordConflict counts transport ids claimed by more than one identity.
func RecordConflict(ctx context.Context, kind Kind, count int) {
	if count == 0 {
		return
	}

	meterOnce.Do(initMeter)
	if conflictCounter == nil {
		return
	}

	conflictCounter.Add(ctx, int64(count), metric.WithAttributes(attribute.String("kind", kind.String())))
}
