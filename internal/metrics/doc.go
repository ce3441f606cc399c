// Package metrics records per-run stage timings and outcomes.
//
// Components receive a Recorder and never check for nil: NoopRecorder is
// the default. When the build configuration names a metrics textfile, the
// CLI swaps in a PrometheusRecorder and writes its registry to that file
// after the run, in the text exposition format read by the node_exporter
// textfile collector.
package metrics
