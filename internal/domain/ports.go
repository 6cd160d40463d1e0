package domain

import "context"

// CatalogSource is the remote marketplace backend. Implementations must
// tolerate partially-malformed stored records by skipping them, not failing.
type CatalogSource interface {
	GetAllPublished(ctx context.Context) ([]PropertyRecord, error)
	GetByOwner(ctx context.Context, ownerID int64) ([]PropertyRecord, error)
	GetByID(ctx context.Context, id int64) (PropertyRecord, error)
}

// CatalogRepository is the local denormalized catalog store.
type CatalogRepository interface {
	UpsertProperty(ctx context.Context, p PropertyRecord) error
	ListPublished(ctx context.Context) ([]PropertyRecord, error)
	GetProperty(ctx context.Context, id int64) (PropertyRecord, error)
}

// NegotiationRepository persists negotiations. GetByCandidate returns the most
// recent negotiation for the (renter, property) pair regardless of status, or
// ErrNotFound.
type NegotiationRepository interface {
	List(ctx context.Context, renterID int64) ([]Negotiation, error)
	Create(ctx context.Context, n Negotiation) (Negotiation, error)
	Update(ctx context.Context, n Negotiation) (Negotiation, error)
	Delete(ctx context.Context, id int64) error
	GetByCandidate(ctx context.Context, renterID, propertyID int64) (Negotiation, error)
}

// MessagingTransport loads and appends to a negotiation's chat thread.
type MessagingTransport interface {
	LoadThread(ctx context.Context, negotiationID int64) ([]Message, error)
	Send(ctx context.Context, negotiationID, senderID int64, body string) (Message, error)
}

// FavoritesStore records the renter's liked candidates. DecisionSession
// consults Has to exclude already-favorited candidates.
type FavoritesStore interface {
	Add(ctx context.Context, renterID int64, p PropertyRecord) error
	Remove(ctx context.Context, renterID, propertyID int64) error
	Has(ctx context.Context, renterID, propertyID int64) (bool, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
