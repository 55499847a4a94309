// Package metrics provides pipeline and event-queue instrumentation.
//
// Components depend on the Recorder interface and default to NoopRecorder,
// so metrics stay optional. When metrics are enabled the server wires a
// PrometheusRecorder and exposes its registry through HTTPHandler.
package metrics
