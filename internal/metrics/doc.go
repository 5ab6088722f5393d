// Package metrics exposes relay board counters to Prometheus.
//
// The collectors live on a private registry served by Handler, mounted on
// the optional companion HTTP listener (`metrics.listen` in the config).
// The control socket itself never serves metrics.
package metrics
