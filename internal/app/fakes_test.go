package app_test

import (
	"context"
	"errors"
	"sort"
	"time"

	"rentmatch/internal/domain"
)

// ---- fakes ----

type fakeCatalogRepo struct {
	records []domain.PropertyRecord
	err     error
}

func (f *fakeCatalogRepo) UpsertProperty(ctx context.Context, p domain.PropertyRecord) error {
	for i, r := range f.records {
		if r.ID == p.ID {
			f.records[i] = p
			return nil
		}
	}
	f.records = append(f.records, p)
	return nil
}

func (f *fakeCatalogRepo) ListPublished(ctx context.Context) ([]domain.PropertyRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.PropertyRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeCatalogRepo) GetProperty(ctx context.Context, id int64) (domain.PropertyRecord, error) {
	if f.err != nil {
		return domain.PropertyRecord{}, f.err
	}
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.PropertyRecord{}, domain.ErrNotFound
}

// fakeCache never stores so reads always hit the repo.
type fakeCache struct{}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	return false, nil // keep tests deterministic: never serve from cache
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error { return nil }
func (c *fakeCache) Del(ctx context.Context, key string) error                    { return nil }

type fakeFavorites struct {
	ids  map[int64]bool
	err  error
	adds int
}

func newFakeFavorites(ids ...int64) *fakeFavorites {
	m := make(map[int64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return &fakeFavorites{ids: m}
}

func (f *fakeFavorites) Add(ctx context.Context, renterID int64, p domain.PropertyRecord) error {
	if f.err != nil {
		return f.err
	}
	f.ids[p.ID] = true
	f.adds++
	return nil
}

func (f *fakeFavorites) Remove(ctx context.Context, renterID, propertyID int64) error {
	delete(f.ids, propertyID)
	return nil
}

func (f *fakeFavorites) Has(ctx context.Context, renterID, propertyID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.ids[propertyID], nil
}

type fakeNegotiationRepo struct {
	nextID int64
	items  []domain.Negotiation
	err    error
}

func (f *fakeNegotiationRepo) List(ctx context.Context, renterID int64) ([]domain.Negotiation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Negotiation
	for _, n := range f.items {
		if n.RenterID == renterID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNegotiationRepo) Create(ctx context.Context, n domain.Negotiation) (domain.Negotiation, error) {
	if f.err != nil {
		return domain.Negotiation{}, f.err
	}
	f.nextID++
	n.ID = f.nextID
	f.items = append(f.items, n)
	return n, nil
}

func (f *fakeNegotiationRepo) Update(ctx context.Context, n domain.Negotiation) (domain.Negotiation, error) {
	if f.err != nil {
		return domain.Negotiation{}, f.err
	}
	for i, m := range f.items {
		if m.ID == n.ID {
			f.items[i] = n
			return n, nil
		}
	}
	return domain.Negotiation{}, domain.ErrNotFound
}

func (f *fakeNegotiationRepo) Delete(ctx context.Context, id int64) error {
	for i, m := range f.items {
		if m.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeNegotiationRepo) GetByCandidate(ctx context.Context, renterID, propertyID int64) (domain.Negotiation, error) {
	if f.err != nil {
		return domain.Negotiation{}, f.err
	}
	var matches []domain.Negotiation
	for _, n := range f.items {
		if n.RenterID == renterID && n.PropertyID == propertyID {
			matches = append(matches, n)
		}
	}
	if len(matches) == 0 {
		return domain.Negotiation{}, domain.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	return matches[0], nil
}

type fakeTransport struct {
	msgs   []domain.Message
	nextID int64
	err    error
}

func (f *fakeTransport) LoadThread(ctx context.Context, negotiationID int64) ([]domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Message
	for _, m := range f.msgs {
		if m.NegotiationID == negotiationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeTransport) Send(ctx context.Context, negotiationID, senderID int64, body string) (domain.Message, error) {
	if f.err != nil {
		return domain.Message{}, f.err
	}
	f.nextID++
	m := domain.Message{ID: f.nextID, NegotiationID: negotiationID, SenderID: senderID, Body: body, SentAt: time.Now()}
	f.msgs = append(f.msgs, m)
	return m, nil
}

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

var errBoom = errors.New("boom")
