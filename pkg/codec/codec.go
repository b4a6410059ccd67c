// Package codec decodes actions that arrive as data, a name and a loose
// payload, into the typed action values a reducer understands.
//
// Transports (HTTP, websocket, MCP, CLI) share one Registry per feature:
//
//	r := codec.NewRegistry[counter.Action]()
//	codec.RegisterValue(r, "increment", counter.IncrementTapped{})
//	codec.Register(r, "fact_response", func(p counter.FactResponse) counter.Action { return p })
//
//	a, err := r.Decode(domain.ActionRequest{Type: "increment"})
package codec

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/composable/pkg/domain"
)

type entry[A any] struct {
	decode     func(payload map[string]any) (A, error)
	descriptor domain.ActionDescriptor
}

// Registry maps action names to decoders. Safe for concurrent use.
type Registry[A any] struct {
	mu      sync.RWMutex
	entries map[string]entry[A]
}

// NewRegistry creates an empty registry.
func NewRegistry[A any]() *Registry[A] {
	return &Registry[A]{entries: make(map[string]entry[A])}
}

// Option customizes a registration.
type Option func(*domain.ActionDescriptor)

// WithDescription documents the action in listings.
func WithDescription(text string) Option {
	return func(d *domain.ActionDescriptor) {
		d.Description = text
	}
}

// Register maps name to build. The payload is decoded into P with mapstructure,
// matching fields by their json tag; numbers given as strings and the like are
// converted, unknown keys are rejected.
func Register[A, P any](r *Registry[A], name string, build func(P) A, opts ...Option) {
	d := domain.ActionDescriptor{Name: name, Parameters: schemaOf(reflect.TypeFor[P]())}
	for _, opt := range opts {
		opt(&d)
	}
	decode := func(payload map[string]any) (A, error) {
		var p P
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			Result:           &p,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
		})
		if err != nil {
			var zero A
			return zero, err
		}
		if err := dec.Decode(payload); err != nil {
			var zero A
			return zero, fmt.Errorf("decode %s payload: %w", name, err)
		}
		return build(p), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry[A]{decode: decode, descriptor: d}
}

// RegisterValue maps name to a payload-less action.
func RegisterValue[A any](r *Registry[A], name string, action A, opts ...Option) {
	Register(r, name, func(struct{}) A { return action }, opts...)
}

// Decode builds the action described by req. Unknown names yield an error
// wrapping domain.ErrUnknownAction.
func (r *Registry[A]) Decode(req domain.ActionRequest) (A, error) {
	r.mu.RLock()
	e, ok := r.entries[req.Type]
	r.mu.RUnlock()
	if !ok {
		var zero A
		return zero, fmt.Errorf("%w: %q", domain.ErrUnknownAction, req.Type)
	}
	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return e.decode(payload)
}

// DecodeJSON decodes a JSON encoded domain.ActionRequest.
func (r *Registry[A]) DecodeJSON(data []byte) (A, error) {
	var req domain.ActionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		var zero A
		return zero, fmt.Errorf("invalid action request: %w", err)
	}
	return r.Decode(req)
}

// Names lists the registered names in lexical order.
func (r *Registry[A]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Describe lists the descriptors in lexical order of name.
func (r *Registry[A]) Describe() []domain.ActionDescriptor {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ActionDescriptor, 0, len(names))
	for _, name := range names {
		if e, ok := r.entries[name]; ok {
			out = append(out, e.descriptor)
		}
	}
	return out
}

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	durationType        = reflect.TypeFor[time.Duration]()
)

// schemaOf renders the JSON schema of a payload type. Types decoded from text
// by the payload decoder (durations, UUIDs and other text unmarshalers) are
// described as strings.
func schemaOf(t reflect.Type) map[string]any {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == durationType || t.Implements(textUnmarshalerType) || reflect.PointerTo(t).Implements(textUnmarshalerType) {
				return &jsonschema.Schema{Type: "string"}
			}
			return nil
		},
	}
	schema := reflector.ReflectFromType(t)
	schema.Version = ""

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}
