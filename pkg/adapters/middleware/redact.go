package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redaction struct {
	next     ports.SnapshotPublisher
	patterns []*regexp.Regexp
}

// NewRedaction masks, at any depth, the state fields whose JSON key matches
// one of the patterns. The state is re-encoded as generic JSON first, so the
// published State is a map rather than the store's own type.
func NewRedaction(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.SnapshotPublisher) ports.SnapshotPublisher {
		if len(compiled) == 0 {
			return next
		}
		return &redaction{next: next, patterns: compiled}
	}, nil
}

func (m *redaction) Publish(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot.State)
	if err != nil {
		return fmt.Errorf("redaction: encode state: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("redaction: decode state: %w", err)
	}
	snapshot.State = mask(generic, m.patterns)
	return m.next.Publish(ctx, snapshot)
}

func mask(v any, patterns []*regexp.Regexp) any {
	switch v := v.(type) {
	case map[string]any:
		for k, sub := range v {
			if matches(k, patterns) {
				v[k] = Mask
				continue
			}
			v[k] = mask(sub, patterns)
		}
	case []any:
		for i, sub := range v {
			v[i] = mask(sub, patterns)
		}
	}
	return v
}

func matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
