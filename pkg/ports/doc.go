/*
Package ports defines the capability interfaces the composable runtime and its features
depend on.

Features never reach for the wall clock, a random number generator or the network
directly. They receive these capabilities as values satisfying the interfaces below,
so that tests can swap in deterministic fakes.

# Key Interfaces

  - Clock: current time, cancellable sleeps and repeating timers.
  - RandomSource: coin flips and bounded integers.
  - UUIDGenerator: identity tokens for new state values.
  - SnapshotPublisher: ships published state snapshots to an external transport.
  - Locker: exclusive leases shared by several processes.
  - Endpoint: a store behind a codec, the surface every transport adapter serves.
*/
package ports
