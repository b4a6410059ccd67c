/*
Package domain contains the shared, dependency-free vocabulary of the composable runtime.

It holds no generic state machinery; that lives in the effect, reducer and store
packages. What it does define is everything the runtime reports to the outside world,
so that adapters and observability tooling can be written without type parameters.

# Key Entities

  - LifecycleHooks: optional callbacks fired for actions, state changes and effects.
  - ActionEvent, StateEvent, EffectEvent: the payloads passed to those hooks.
  - Snapshot: the envelope used by transports to ship a state value.
  - ActionRequest, ActionResponse, ActionDescriptor: untyped actions as transports see them.
  - Sentinel errors shared by every package.
*/
package domain
