package sparse

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Metrics singletons.
var (
	tracer trace.Tracer
	meter  metric.Meter
)

// OpenCounter is the metrics for the [New] function.
var openCounter metric.Int64Counter

func init() {
	const pkgname = `github.com/quay/condakit/sparse`
	tracer = otel.Tracer(pkgname)
	meter = otel.Meter(pkgname)

	var err error
	openCounter, err = meter.Int64Counter("repodata.open.count",
		metric.WithDescription("total number of repodata handles constructed"),
		metric.WithUnit("{instance}"),
	)
	if err != nil {
		panic(err)
	}
}
