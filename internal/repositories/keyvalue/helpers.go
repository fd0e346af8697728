// Package keyvalue implements the repositories on top of the durable
// key-value store. Every operation reads the full collection, mutates it in
// memory and writes the full collection back.
package keyvalue

import (
	"context"
	"errors"
	"fmt"

	"safetravel/pkg/kv"
)

// load reads key into dest. A missing key leaves dest untouched and is not an
// error, so collections start out empty.
func load(ctx context.Context, store kv.Store, key string, dest interface{}) error {
	if err := store.Get(ctx, key, dest); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	return nil
}

func save(ctx context.Context, store kv.Store, key string, value interface{}) error {
	if err := store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
