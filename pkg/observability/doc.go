/*
Package observability turns the lifecycle events of a store into metrics,
traces and logs.

Every collector exposes a domain.LifecycleHooks value; combine them with
domain.ComposeHooks and hand the result to store.WithLifecycleHooks:

	metrics := observability.NewMetrics(observability.WithRegistry(reg))
	tracing := observability.NewTracing()
	s := store.New(initial, feature, store.WithLifecycleHooks(domain.ComposeHooks(
		metrics.Hooks(),
		tracing.Hooks(),
		observability.LoggingHooks(logger),
	)))

The Aggregator merges the snapshot streams of several stores into one, for
transports that observe more than one store.
*/
package observability
