// Package metrics holds the Prometheus collectors exported on /metrics and
// small helpers for recording them from the dispatcher, the analysis path
// and the scoring path.
package metrics
