package knowledge

import (
	"context"
	"errors"
	"fmt"

	"garden_buddy/internal/storage"
	"garden_buddy/pkg"
)

// LoadUserTaught reads a user's taught entries. A missing key is an empty list.
func LoadUserTaught(ctx context.Context, kv storage.KeyValueStore, keys storage.Keys, userID string) ([]pkg.KnowledgeEntry, error) {
	var entries []pkg.KnowledgeEntry
	err := storage.GetJSON(ctx, kv, keys.Knowledge(userID), &entries)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load taught knowledge: %w", err)
	}
	return entries, nil
}

// SaveUserTaught writes the store's taught entries back
func SaveUserTaught(ctx context.Context, kv storage.KeyValueStore, keys storage.Keys, userID string, s *Store) error {
	if err := storage.SetJSON(ctx, kv, keys.Knowledge(userID), s.UserTaught()); err != nil {
		return fmt.Errorf("failed to save taught knowledge: %w", err)
	}
	return nil
}
