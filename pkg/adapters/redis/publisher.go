// Package redis ships store snapshots through Redis: the latest snapshot of a
// store is kept under a key and every change is published on a channel.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/ports"
)

const defaultPrefix = "composable:"

// Publisher implements ports.SnapshotPublisher using Redis.
type Publisher struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.SnapshotStore = (*Publisher)(nil)

type Option func(*Publisher)

// WithTTL sets the expiration of the latest-snapshot key.
func WithTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		p.ttl = ttl
	}
}

// WithPrefix sets the prefix of every key and channel.
func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// New creates a Publisher with its own client.
func New(address, password string, db int, opts ...Option) *Publisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns the underlying client.
func (p *Publisher) Client() *backend.Client {
	return p.client
}

func (p *Publisher) key(storeID string) string {
	return p.prefix + "snapshot:" + storeID
}

// Channel returns the channel snapshots of storeID are published on.
func (p *Publisher) Channel(storeID string) string {
	return p.prefix + "snapshots:" + storeID
}

// Publish stores the snapshot as the latest one of its store and announces it.
func (p *Publisher) Publish(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	_, err = p.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, p.key(snapshot.StoreID), data, p.ttl)
		pipe.Publish(ctx, p.Channel(snapshot.StoreID), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish snapshot to redis: %w", err)
	}
	return nil
}

// Latest returns the last snapshot published for storeID.
func (p *Publisher) Latest(ctx context.Context, storeID string) (domain.Snapshot, error) {
	data, err := p.client.Get(ctx, p.key(storeID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to load snapshot from redis: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Subscribe delivers the snapshots published for storeID until ctx is done.
// Messages that do not decode are skipped. The subscription is active when
// Subscribe returns.
func (p *Publisher) Subscribe(ctx context.Context, storeID string) (<-chan domain.Snapshot, error) {
	sub := p.client.Subscribe(ctx, p.Channel(storeID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan domain.Snapshot)
	go func() {
		defer close(out)
		defer sub.Close()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var snap domain.Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
