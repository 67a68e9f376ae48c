// Package observe provides the decode pipeline's OpenTelemetry metrics.
//
// Instruments are created from a [metric.MeterProvider]. Tests should use
// [NewMetrics] with an SDK provider backed by a manual reader; production
// code may use [DefaultMetrics], which binds to the global provider.
package observe
