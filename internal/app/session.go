package app

import (
	"context"

	"rentmatch/internal/domain"
)

// Direction classifies a decision on the current candidate. Like and MoreInfo
// both denote positive interest; only Pass is a rejection.
type Direction int

const (
	DirectionPass Direction = iota
	DirectionLike
	DirectionMoreInfo
)

func (d Direction) String() string {
	switch d {
	case DirectionLike:
		return "like"
	case DirectionMoreInfo:
		return "more_info"
	default:
		return "pass"
	}
}

// Positive reports whether the direction denotes interest in the candidate.
func (d Direction) Positive() bool { return d != DirectionPass }

// DecisionFunc receives the candidate that was current when the decision was
// made, before the cursor advances.
type DecisionFunc func(p domain.PropertyRecord, dir Direction)

// ExhaustedFunc fires exactly once, when the cursor passes the last candidate.
type ExhaustedFunc func()

// DecisionSession walks a fixed snapshot of candidates one at a time. It is
// rebuilt from scratch whenever the filtered list changes identity; the cursor
// never survives a filter change.
type DecisionSession struct {
	candidates  []domain.PropertyRecord
	cursor      int
	signalled   bool
	onDecision  DecisionFunc
	onExhausted ExhaustedFunc
}

// NewDecisionSession builds a session over candidates, excluding any the
// renter has already favorited. The exclusion happens before the cursor is
// established, so favoriting is idempotent with respect to re-appearing.
func NewDecisionSession(ctx context.Context, candidates []domain.PropertyRecord, renterID int64,
	favorites domain.FavoritesStore, onDecision DecisionFunc, onExhausted ExhaustedFunc) (*DecisionSession, error) {

	kept := make([]domain.PropertyRecord, 0, len(candidates))
	for _, c := range candidates {
		if favorites != nil {
			has, err := favorites.Has(ctx, renterID, c.ID)
			if err != nil {
				return nil, &domain.CollaboratorError{Op: "favorites.Has", Err: err}
			}
			if has {
				continue
			}
		}
		kept = append(kept, c)
	}
	s := &DecisionSession{
		candidates:  kept,
		onDecision:  onDecision,
		onExhausted: onExhausted,
	}
	// Favorite exclusion can empty the list; such a session is exhausted at
	// birth and signals immediately, not on a Decide that can never happen.
	if len(kept) == 0 {
		s.signalled = true
		if onExhausted != nil {
			onExhausted()
		}
	}
	return s, nil
}

// Current returns the candidate under the cursor.
func (s *DecisionSession) Current() (domain.PropertyRecord, bool) {
	if s.cursor >= len(s.candidates) {
		return domain.PropertyRecord{}, false
	}
	return s.candidates[s.cursor], true
}

// Next peeks one past the cursor for pre-rendering.
func (s *DecisionSession) Next() (domain.PropertyRecord, bool) {
	if s.cursor+1 >= len(s.candidates) {
		return domain.PropertyRecord{}, false
	}
	return s.candidates[s.cursor+1], true
}

// Decide emits the decision callback for the current candidate and advances
// the cursor. It reports false when the session was already exhausted.
func (s *DecisionSession) Decide(dir Direction) bool {
	cur, ok := s.Current()
	if !ok {
		return false
	}
	if s.onDecision != nil {
		s.onDecision(cur, dir)
	}
	s.cursor++
	if s.cursor >= len(s.candidates) && !s.signalled {
		s.signalled = true
		if s.onExhausted != nil {
			s.onExhausted()
		}
	}
	return true
}

func (s *DecisionSession) Exhausted() bool { return s.cursor >= len(s.candidates) }

// Len is the candidate count after favorite exclusion.
func (s *DecisionSession) Len() int { return len(s.candidates) }

func (s *DecisionSession) Remaining() int {
	if s.Exhausted() {
		return 0
	}
	return len(s.candidates) - s.cursor
}
