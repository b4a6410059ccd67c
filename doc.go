/*
Package composable is a runtime for building applications out of small features
whose behavior is a pure function of state and action.

# Concept

A feature declares a State, an Action sum type and a Reducer. The reducer
mutates nothing outside the state it returns; any work with the outside world is
described as an Effect value that the Store executes on its behalf and whose
results come back as further actions. Features are combined by scoping a child
reducer into a slice of the parent state and a case of the parent action.

# Packages

  - pkg/effect: effect values (None, Send, Run, Stream, Timer, Cancel, Merge, Concatenate, Debounce) and their runtime.
  - pkg/reducer: the Reducer interface and its composition (Combine, Scope, Optional, IfLet, ForEach).
  - pkg/store: the Store that serializes actions, publishes state and runs effects.
  - pkg/teststore: an exhaustive test harness asserting every state change and received action.
  - pkg/identified: an ordered collection addressed by element id.
  - pkg/codec: decoding of actions arriving as data, shared by the transports.
  - pkg/adapters: clocks, randomness, ids, HTTP, MCP and Redis.

# Usage

	s := store.New(counter.NewState(), counter.New(deps))
	s.Send(counter.IncrementTapped{})
	fmt.Println(s.State().Count)

The composable command hosts the bundled features over a terminal, HTTP or MCP:

	composable serve counter --addr :8080
*/
package composable
