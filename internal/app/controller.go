package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"rentmatch/internal/adapters/observability"
	"rentmatch/internal/domain"
)

// EndState is the UI-facing terminal signal for a decision session. The two
// non-zero states are mutually exclusive: NoMatches means the filtered set was
// empty before the session started while filters were active; NoMoreCandidates
// means a non-empty set was exhausted by decisions.
type EndState int

const (
	EndStateNone EndState = iota
	EndStateNoMatches
	EndStateNoMoreCandidates
)

func (e EndState) String() string {
	switch e {
	case EndStateNoMatches:
		return "no_matching_properties"
	case EndStateNoMoreCandidates:
		return "no_more_candidates"
	default:
		return "none"
	}
}

// CandidateView is the per-candidate view model: the record, the derived
// negotiation button, and the unread/preview pair when chat is unlocked.
type CandidateView struct {
	Property    domain.PropertyRecord
	Button      ButtonState
	UnreadCount int
	LastMessage string
}

// MatchingController wires the pipeline together for one renter: filter the
// catalog, drive the decision session, and fold negotiation and messaging
// state back into candidate views. It holds no state beyond the current
// session and its filter result.
type MatchingController struct {
	catalog      *CatalogService
	engine       *FilterEngine
	negotiations *NegotiationService
	messaging    *MessagingSync
	favorites    domain.FavoritesStore
	renterID     int64
	log          zerolog.Logger

	mu       sync.Mutex
	session  *DecisionSession
	result   domain.FilterResult
	endState EndState
}

func NewMatchingController(catalog *CatalogService, engine *FilterEngine, negotiations *NegotiationService,
	messaging *MessagingSync, favorites domain.FavoritesStore, renterID int64, log zerolog.Logger) *MatchingController {
	return &MatchingController{
		catalog:      catalog,
		engine:       engine,
		negotiations: negotiations,
		messaging:    messaging,
		favorites:    favorites,
		renterID:     renterID,
		log:          log,
	}
}

// SetFilter sanitizes and applies the spec, then replaces the session with a
// fresh one over the new filtered list. The in-flight cursor is discarded; no
// diffing of old versus new lists is attempted.
func (c *MatchingController) SetFilter(ctx context.Context, query string, spec domain.FilterSpec) (domain.FilterResult, error) {
	spec = c.engine.Sanitize(spec)

	catalog, err := c.catalog.Published(ctx)
	if err != nil {
		// Fail-open continues with an empty catalog so derived counters stay
		// consistent; fail-closed surfaces the collaborator error.
		if _, derr := c.engine.Degrade(err); derr != nil {
			return domain.FilterResult{}, derr
		}
		catalog = nil
	}

	res := c.engine.Apply(catalog, query, spec)
	// End state is decided on the pre-session filtered count, before favorite
	// exclusion shrinks the candidate list.
	end := EndStateNone
	if res.FilteredCount == 0 {
		if res.ActiveFilterCount > 0 {
			end = EndStateNoMatches
		} else {
			end = EndStateNoMoreCandidates
		}
	}

	session, err := NewDecisionSession(ctx, res.Properties, c.renterID, c.favorites,
		func(p domain.PropertyRecord, dir Direction) {
			observability.ObserveDecision(dir.String())
		},
		func() {
			c.log.Debug().Int64("renter", c.renterID).Msg("session exhausted")
		})
	if err != nil {
		return domain.FilterResult{}, err
	}
	// Favorite exclusion can exhaust a non-empty filtered set at birth; the
	// renter still needs an end state.
	if end == EndStateNone && session.Exhausted() {
		end = EndStateNoMoreCandidates
	}

	if ctx.Err() != nil {
		// Consumer unmounted mid-await: discard the pending session swap.
		c.mu.Lock()
		cur := c.result
		c.mu.Unlock()
		return cur, nil
	}

	c.mu.Lock()
	c.session = session
	c.result = res
	c.endState = end
	c.mu.Unlock()
	return res, nil
}

// Decide applies a direction to the current candidate. Like favorites the
// candidate; more-info records interest without favoriting; pass has no
// persistent effect. Negotiation creation is a separate, explicit action.
func (c *MatchingController) Decide(ctx context.Context, dir Direction) (EndState, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return EndStateNone, &domain.ValidationError{Field: "session", Reason: "no active session; apply a filter first"}
	}

	cur, ok := session.Current()
	if !ok {
		return c.EndState(), nil
	}

	if dir == DirectionLike {
		if err := c.favorites.Add(ctx, c.renterID, cur); err != nil {
			return c.EndState(), &domain.CollaboratorError{Op: "favorites.Add", Err: err}
		}
	}

	session.Decide(dir)
	if session.Exhausted() {
		c.mu.Lock()
		if c.endState == EndStateNone {
			c.endState = EndStateNoMoreCandidates
		}
		c.mu.Unlock()
	}
	return c.EndState(), nil
}

// Release classifies a drag release and, when it crosses a threshold,
// forwards the direction to Decide. Sub-threshold releases are a no-op.
func (c *MatchingController) Release(ctx context.Context, g Gesture) (EndState, bool, error) {
	dir, ok := ClassifyGesture(g)
	if !ok {
		return c.EndState(), false, nil
	}
	end, err := c.Decide(ctx, dir)
	return end, true, err
}

// Current returns the candidate under the cursor, Peek the one after it.
func (c *MatchingController) Current() (domain.PropertyRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.PropertyRecord{}, false
	}
	return c.session.Current()
}

func (c *MatchingController) Peek() (domain.PropertyRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.PropertyRecord{}, false
	}
	return c.session.Next()
}

func (c *MatchingController) EndState() EndState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endState
}

func (c *MatchingController) Result() domain.FilterResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// RequestAccess opens a negotiation for a candidate. This is the explicit
// user action; liking a candidate never creates one.
func (c *MatchingController) RequestAccess(ctx context.Context, propertyID int64, d RequestDetails) (domain.Negotiation, error) {
	prop, err := c.catalog.Get(ctx, propertyID)
	if err != nil {
		return domain.Negotiation{}, err
	}
	return c.negotiations.Create(ctx, c.renterID, prop, d)
}

// View assembles the candidate view: record, derived button state, and the
// unread/preview pair when the negotiation has unlocked chat.
func (c *MatchingController) View(ctx context.Context, propertyID int64) (CandidateView, error) {
	prop, err := c.catalog.Get(ctx, propertyID)
	if err != nil {
		return CandidateView{}, err
	}
	view := CandidateView{Property: prop, Button: ButtonMakeRequest}

	n, err := c.negotiations.FindByCandidate(ctx, c.renterID, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return view, nil
		}
		return CandidateView{}, err
	}
	view.Button = DeriveButtonState(&n)

	if view.Button == ButtonChat {
		thread, err := c.messaging.Load(ctx, n, c.renterID)
		if err != nil {
			return CandidateView{}, err
		}
		view.UnreadCount = thread.UnreadCount
		view.LastMessage = thread.LastMessage
	}
	return view, nil
}
