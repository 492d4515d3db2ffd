/*
Package observability turns workflow lifecycle events into Prometheus metrics
and structured log records.

Every producer accepts a domain.LifecycleHooks; Chain combines several:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Chain(metrics.Hooks(), observability.LogHooks(logger))
	wf := trawler.New(driver, trawler.WithLifecycleHooks(hooks))
*/
package observability
