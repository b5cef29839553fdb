// Package metrics records build and stage metrics.
//
// Components receive a Recorder. NoopRecorder is the default; the Prometheus
// implementation is swapped in when a metrics listen address is configured:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	srv := metrics.NewServer(":9090", reg)
package metrics
