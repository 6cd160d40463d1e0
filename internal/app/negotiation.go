package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rentmatch/internal/adapters/observability"
	"rentmatch/internal/domain"
)

// ButtonState is the UI-facing action derived from the latest negotiation for
// a candidate. It is re-derived on every read, never stored.
type ButtonState string

const (
	ButtonMakeRequest ButtonState = "make_request"
	ButtonPending     ButtonState = "pending"
	ButtonChat        ButtonState = "chat"
)

// RequestDetails carries the renter's requested date range and optional note.
type RequestDetails struct {
	From    time.Time
	To      time.Time
	Message string
}

// NegotiationService tracks one negotiation state machine per (renter,
// property) pair. It keeps an in-memory snapshot merged by identifier on top
// of the persistence collaborator; two near-simultaneous refreshes of the
// same negotiation therefore converge instead of duplicating records.
type NegotiationService struct {
	repo domain.NegotiationRepository
	now  func() time.Time
	log  zerolog.Logger

	mu   sync.Mutex
	byID map[int64]domain.Negotiation
}

func NewNegotiationService(repo domain.NegotiationRepository, log zerolog.Logger) *NegotiationService {
	return &NegotiationService{
		repo: repo,
		now:  time.Now,
		log:  log,
		byID: make(map[int64]domain.Negotiation),
	}
}

// Create opens a fresh pending negotiation for the candidate. A non-terminal
// negotiation already existing for the pair is a caller error; a terminal one
// (rejected/cancelled) is history and does not block a new request.
func (s *NegotiationService) Create(ctx context.Context, renterID int64, candidate domain.PropertyRecord, d RequestDetails) (domain.Negotiation, error) {
	if !d.To.IsZero() && d.From.After(d.To) {
		return domain.Negotiation{}, &domain.ValidationError{Field: "from", Reason: "requested range starts after it ends"}
	}

	existing, err := s.repo.GetByCandidate(ctx, renterID, candidate.ID)
	switch {
	case err == nil:
		if !existing.Status.Terminal() {
			return domain.Negotiation{}, &domain.ValidationError{
				Field:  "propertyId",
				Reason: "an active negotiation already exists for this property",
			}
		}
	case errors.Is(err, domain.ErrNotFound):
		// no prior negotiation, fine
	default:
		return domain.Negotiation{}, &domain.CollaboratorError{Op: "negotiations.GetByCandidate", Err: err}
	}

	now := s.now()
	n := domain.Negotiation{
		PropertyID: candidate.ID,
		RenterID:   renterID,
		OwnerID:    candidate.OwnerID,
		From:       d.From,
		To:         d.To,
		Message:    d.Message,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return domain.Negotiation{}, &domain.CollaboratorError{Op: "negotiations.Create", Err: err}
	}
	observability.ObserveNegotiation("created")

	// If the caller went away mid-await, the snapshot mutation is discarded;
	// the persisted record will surface on the next refresh.
	if ctx.Err() == nil {
		s.merge(created)
	}
	return created, nil
}

// Transition moves a pending negotiation to approved, rejected, or cancelled.
// Every other source status is terminal for this instance.
func (s *NegotiationService) Transition(ctx context.Context, renterID, id int64, to domain.Status) (domain.Negotiation, error) {
	if !to.Known() {
		return domain.Negotiation{}, &domain.ValidationError{Field: "status", Reason: "unknown status " + string(to)}
	}

	n, err := s.Get(ctx, renterID, id)
	if err != nil {
		return domain.Negotiation{}, err
	}
	if n.Status != domain.StatusPending || to == domain.StatusPending {
		return domain.Negotiation{}, &domain.InvalidTransitionError{From: n.Status, To: to}
	}

	from := n.Status
	n.Status = to
	n.UpdatedAt = s.now()
	updated, err := s.repo.Update(ctx, n)
	if err != nil {
		return domain.Negotiation{}, &domain.CollaboratorError{Op: "negotiations.Update", Err: err}
	}
	observability.ObserveTransition(string(from), string(to))
	s.log.Info().Int64("id", id).Str("from", string(from)).Str("to", string(to)).Msg("negotiation transition")

	if ctx.Err() == nil {
		s.merge(updated)
	}
	return updated, nil
}

// FindByCandidate returns the most recent negotiation for the pair regardless
// of status, or ErrNotFound when the renter never requested this property.
func (s *NegotiationService) FindByCandidate(ctx context.Context, renterID, propertyID int64) (domain.Negotiation, error) {
	s.mu.Lock()
	var latest domain.Negotiation
	found := false
	for _, n := range s.byID {
		if n.RenterID != renterID || n.PropertyID != propertyID {
			continue
		}
		if !found || n.CreatedAt.After(latest.CreatedAt) || (n.CreatedAt.Equal(latest.CreatedAt) && n.ID > latest.ID) {
			latest = n
			found = true
		}
	}
	s.mu.Unlock()
	if found {
		return latest, nil
	}

	fetched, err := s.repo.GetByCandidate(ctx, renterID, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Negotiation{}, domain.ErrNotFound
		}
		return domain.Negotiation{}, &domain.CollaboratorError{Op: "negotiations.GetByCandidate", Err: err}
	}
	if ctx.Err() == nil {
		s.merge(fetched)
	}
	return fetched, nil
}

// Refresh re-fetches the pair's negotiation and merges it by identifier: a
// held negotiation sharing the fetched id is replaced wholesale, anything
// else is appended. Field-by-field merging never happens.
func (s *NegotiationService) Refresh(ctx context.Context, renterID, propertyID int64) error {
	fetched, err := s.repo.GetByCandidate(ctx, renterID, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return &domain.CollaboratorError{Op: "negotiations.GetByCandidate", Err: err}
	}
	if ctx.Err() != nil {
		// Consumer went away mid-await; discard the pending mutation.
		return nil
	}
	s.merge(fetched)
	return nil
}

// Withdraw removes a negotiation record entirely (owner-side cleanup of
// terminal history). Renter cancellation goes through Transition.
func (s *NegotiationService) Withdraw(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return &domain.CollaboratorError{Op: "negotiations.Delete", Err: err}
	}
	if ctx.Err() == nil {
		s.mu.Lock()
		delete(s.byID, id)
		s.mu.Unlock()
	}
	return nil
}

// Get returns one negotiation by id, hydrating the renter's snapshot from
// the collaborator on a miss.
func (s *NegotiationService) Get(ctx context.Context, renterID, id int64) (domain.Negotiation, error) {
	s.mu.Lock()
	n, ok := s.byID[id]
	s.mu.Unlock()
	// A hit for another renter's negotiation is a miss: both paths scope to
	// the renter, and the hydrate below ends in ErrNotFound for a foreign id.
	if ok && n.RenterID == renterID {
		return n, nil
	}

	// Snapshot miss: hydrate the renter's negotiations and retry.
	list, err := s.repo.List(ctx, renterID)
	if err != nil {
		return domain.Negotiation{}, &domain.CollaboratorError{Op: "negotiations.List", Err: err}
	}
	if ctx.Err() == nil {
		for _, m := range list {
			s.merge(m)
		}
	}
	for _, m := range list {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Negotiation{}, domain.ErrNotFound
}

func (s *NegotiationService) merge(n domain.Negotiation) {
	s.mu.Lock()
	s.byID[n.ID] = n
	s.mu.Unlock()
}

// DeriveButtonState maps the latest negotiation (or its absence) to the UI
// action. Total over the four statuses plus nil.
func DeriveButtonState(n *domain.Negotiation) ButtonState {
	if n == nil {
		return ButtonMakeRequest
	}
	switch n.Status {
	case domain.StatusPending:
		return ButtonPending
	case domain.StatusApproved:
		return ButtonChat
	case domain.StatusRejected, domain.StatusCancelled:
		return ButtonMakeRequest
	default:
		return ButtonMakeRequest
	}
}
