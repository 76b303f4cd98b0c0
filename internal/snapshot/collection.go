package snapshot

import (
	"context"
	"errors"
	"sync"
)

// Collection is an ordered list of records stored as one JSON array under a single key.
// The mutex serializes read-modify-write cycles within one process only.
type Collection[T any] struct {
	store Store
	key   string
	id    func(*T) string
	mu    sync.Mutex
}

func NewCollection[T any](store Store, key string, id func(*T) string) *Collection[T] {
	return &Collection[T]{store: store, key: key, id: id}
}

// All returns every record, or an empty slice when the collection was never written
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	var items []T
	err := GetJSON(ctx, c.store, c.key, &items)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Find returns the record with the given id, or ErrNotFound
func (c *Collection[T]) Find(ctx context.Context, id string) (*T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if c.id(&items[i]) == id {
			return &items[i], nil
		}
	}
	return nil, ErrNotFound
}

// Filter returns the records matching keep, in stored order
func (c *Collection[T]) Filter(ctx context.Context, keep func(*T) bool) ([]T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i := range items {
		if keep(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out, nil
}

// Upsert replaces the record with the same id in place, or appends it
func (c *Collection[T]) Upsert(ctx context.Context, item *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.All(ctx)
	if err != nil {
		return err
	}
	id := c.id(item)
	replaced := false
	for i := range items {
		if c.id(&items[i]) == id {
			items[i] = *item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, *item)
	}
	return SetJSON(ctx, c.store, c.key, items)
}

// Update applies fn to the record with the given id and persists the result
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T) error) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if c.id(&items[i]) != id {
			continue
		}
		if err := fn(&items[i]); err != nil {
			return nil, err
		}
		if err := SetJSON(ctx, c.store, c.key, items); err != nil {
			return nil, err
		}
		return &items[i], nil
	}
	return nil, ErrNotFound
}

// Remove deletes the record with the given id. Missing ids are not an error.
func (c *Collection[T]) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.All(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for i := range items {
		if c.id(&items[i]) != id {
			kept = append(kept, items[i])
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	return SetJSON(ctx, c.store, c.key, kept)
}
