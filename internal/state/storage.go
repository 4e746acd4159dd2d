package state

import "context"

// Storage defines the persistence contract for pending conversions, keyed by
// chat id. Distinct chat ids never interfere.
type Storage interface {
	// Get returns the pending conversion for the chat or ErrNotFound.
	Get(ctx context.Context, chatID int64) (*PendingConversion, error)
	// Set saves the pending conversion for the chat, replacing any previous one.
	Set(ctx context.Context, chatID int64, pending *PendingConversion) error
	// Clear removes the pending conversion for the chat. Clearing an absent
	// entry is not an error.
	Clear(ctx context.Context, chatID int64) error
	// EvictExpired removes entries older than the storage TTL and reports how
	// many were dropped. Backends with native expiry may report zero.
	EvictExpired(ctx context.Context) (int, error)
}
