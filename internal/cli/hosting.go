package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/composable/examples/counter"
	"github.com/aretw0/composable/examples/newgame"
	"github.com/aretw0/composable/examples/stack"
	"github.com/aretw0/composable/pkg/adapters/clock"
	"github.com/aretw0/composable/pkg/adapters/random"
	"github.com/aretw0/composable/pkg/adapters/uuidgen"
	"github.com/aretw0/composable/pkg/codec"
	"github.com/aretw0/composable/pkg/ports"
	"github.com/aretw0/composable/pkg/store"
)

// ErrUnknownFeature is returned by Host for names outside Features.
var ErrUnknownFeature = errors.New("unknown feature")

// Deps are the capabilities handed to hosted features.
type Deps struct {
	Clock  ports.Clock
	Random ports.RandomSource
	UUID   ports.UUIDGenerator
}

// LiveDeps uses the wall clock and real randomness.
func LiveDeps() Deps {
	return Deps{
		Clock:  clock.NewLive(),
		Random: random.Live{},
		UUID:   uuidgen.Live(),
	}
}

// Hosted is a running feature store behind its codec.
type Hosted struct {
	ports.Endpoint
	close func()
}

// Close cancels the effects of the store.
func (h *Hosted) Close() {
	h.close()
}

var features = map[string]func(Deps, []store.Option) *Hosted{
	"counter": func(d Deps, opts []store.Option) *Hosted {
		s := store.New(counter.NewState(), counter.New(counter.Dependencies{
			Clock: d.Clock,
			Fact:  counter.OfflineFacts(d.Random),
		}), opts...)
		return &Hosted{Endpoint: codec.Bind(s, counter.Actions()), close: s.Close}
	},
	"stack": func(d Deps, opts []store.Option) *Hosted {
		s := store.New(stack.State{}, stack.New(stack.Dependencies{
			Clock:  d.Clock,
			Random: d.Random,
			UUID:   d.UUID,
		}), opts...)
		return &Hosted{Endpoint: codec.Bind(s, stack.Actions()), close: s.Close}
	},
	"newgame": func(d Deps, opts []store.Option) *Hosted {
		s := store.New(newgame.State{}, newgame.New(d.Clock), opts...)
		return &Hosted{Endpoint: codec.Bind(s, newgame.Actions()), close: s.Close}
	},
}

// Features lists the names Host accepts.
func Features() []string {
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Host starts the named feature. The store id defaults to the feature name.
func Host(name string, deps Deps, opts ...store.Option) (*Hosted, error) {
	build, ok := features[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownFeature, name, Features())
	}
	return build(deps, append([]store.Option{store.WithID(name)}, opts...)), nil
}
