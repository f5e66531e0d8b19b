package telemetry

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel/metric"
)

const perfStatsScope = "rickmorty-etl/perf_stats"

// InstrumentPerfStats registers process gauges (cpu, heap, goroutines) on `provider`,
// they are sampled whenever the provider's reader collects.
func InstrumentPerfStats(provider metric.MeterProvider) (metric.Registration, error) {
	meter := provider.Meter(perfStatsScope)

	cpuGauge, err := meter.Float64ObservableGauge("cpu_usage", metric.WithUnit("%"))
	if err != nil {
		return nil, err
	}
	memoryGauge, err := meter.Int64ObservableGauge("allocated_mb", metric.WithUnit("MB"))
	if err != nil {
		return nil, err
	}
	liveObjectsGauge, err := meter.Int64ObservableGauge("live_objects")
	if err != nil {
		return nil, err
	}
	goroutineGauge, err := meter.Int64ObservableGauge("goroutine_count")
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)

			// 0 interval compares against the previous call
			cpuUsage, err := cpu.Percent(0, false)
			if err == nil && len(cpuUsage) > 0 {
				o.ObserveFloat64(cpuGauge, cpuUsage[0])
			}
			o.ObserveInt64(memoryGauge, int64(memStats.Alloc/1_000_000))
			o.ObserveInt64(liveObjectsGauge, int64(memStats.Mallocs)-int64(memStats.Frees))
			o.ObserveInt64(goroutineGauge, int64(runtime.NumGoroutine()))
			return nil
		},
		cpuGauge, memoryGauge, liveObjectsGauge, goroutineGauge,
	)
}
