// Package prometheus exports meshcache operation metrics through
// prometheus/client_golang.
//
//	c := prometheus.NewCollector(prom.DefaultRegisterer)
//	r, _ := meshcache.Open(ctx, path, "xform", "mesh", decls, meshcache.WithMetricsCollector(c))
//	http.Handle("/metrics", promhttp.Handler())
package prometheus
