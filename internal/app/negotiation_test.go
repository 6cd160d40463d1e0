package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rentmatch/internal/app"
	"rentmatch/internal/domain"
)

func newNegotiationService(repo domain.NegotiationRepository) *app.NegotiationService {
	return app.NewNegotiationService(repo, zerolog.Nop())
}

func candidate(id, ownerID int64) domain.PropertyRecord {
	return domain.PropertyRecord{ID: id, OwnerID: ownerID, Title: "flat", Price: 4000}
}

func TestCreate_RejectsInvertedRange(t *testing.T) {
	svc := newNegotiationService(&fakeNegotiationRepo{})
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, -1, 0)
	_, err := svc.Create(context.Background(), 7, candidate(1, 10), app.RequestDetails{From: from, To: to})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "from" {
		t.Fatalf("expected validation error on from, got %v", err)
	}
}

func TestCreate_DuplicateActiveIsValidationError(t *testing.T) {
	repo := &fakeNegotiationRepo{}
	svc := newNegotiationService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "propertyId" {
		t.Fatalf("expected validation error on propertyId, got %v", err)
	}
}

func TestCreate_AfterTerminalOpensFresh(t *testing.T) {
	repo := &fakeNegotiationRepo{}
	svc := newNegotiationService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Transition(ctx, 7, first.ID, domain.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	second, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	if err != nil {
		t.Fatalf("create after terminal: %v", err)
	}
	if second.ID == first.ID || second.Status != domain.StatusPending {
		t.Fatalf("expected a fresh pending negotiation, got %+v", second)
	}
}

func TestTransition_Exhaustive(t *testing.T) {
	cases := []struct {
		from    domain.Status
		to      domain.Status
		allowed bool
	}{
		{domain.StatusPending, domain.StatusApproved, true},
		{domain.StatusPending, domain.StatusRejected, true},
		{domain.StatusPending, domain.StatusCancelled, true},
		{domain.StatusPending, domain.StatusPending, false},
		{domain.StatusApproved, domain.StatusRejected, false},
		{domain.StatusApproved, domain.StatusCancelled, false},
		{domain.StatusRejected, domain.StatusApproved, false},
		{domain.StatusCancelled, domain.StatusApproved, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			repo := &fakeNegotiationRepo{}
			svc := newNegotiationService(repo)
			ctx := context.Background()

			n, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if tc.from != domain.StatusPending {
				if n, err = svc.Transition(ctx, 7, n.ID, tc.from); err != nil {
					t.Fatalf("arrange %s: %v", tc.from, err)
				}
			}

			got, err := svc.Transition(ctx, 7, n.ID, tc.to)
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected %s -> %s to succeed: %v", tc.from, tc.to, err)
				}
				if got.Status != tc.to {
					t.Fatalf("status: %s", got.Status)
				}
				return
			}
			var ite *domain.InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("expected InvalidTransitionError for %s -> %s, got %v", tc.from, tc.to, err)
			}
			if ite.From != tc.from || ite.To != tc.to {
				t.Fatalf("error names wrong edge: %+v", ite)
			}
		})
	}
}

func TestTransition_UnknownStatusIsValidationError(t *testing.T) {
	svc := newNegotiationService(&fakeNegotiationRepo{})
	_, err := svc.Transition(context.Background(), 7, 1, domain.Status("archived"))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "status" {
		t.Fatalf("expected validation error on status, got %v", err)
	}
}

func TestTransition_RefreshesUpdatedAt(t *testing.T) {
	repo := &fakeNegotiationRepo{}
	svc := newNegotiationService(repo)
	ctx := context.Background()

	n, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Transition(ctx, 7, n.ID, domain.StatusApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.UpdatedAt.Before(n.UpdatedAt) {
		t.Fatalf("UpdatedAt went backwards: %v -> %v", n.UpdatedAt, got.UpdatedAt)
	}
	if got.CreatedAt != n.CreatedAt {
		t.Fatalf("CreatedAt must not change on transition")
	}
}

func TestRefresh_ReplacesHeldRecordWholesale(t *testing.T) {
	repo := &fakeNegotiationRepo{}
	svc := newNegotiationService(repo)
	ctx := context.Background()

	n, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Owner approved out of band; the stored record moved on without us.
	repo.items[0].Status = domain.StatusApproved
	repo.items[0].Message = "see you saturday"

	if err := svc.Refresh(ctx, 7, 1); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, err := svc.Get(ctx, 7, n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusApproved || got.Message != "see you saturday" {
		t.Fatalf("snapshot not replaced wholesale: %+v", got)
	}
}

func TestRefresh_CancelledContextDiscardsMutation(t *testing.T) {
	repo := &fakeNegotiationRepo{}
	svc := newNegotiationService(repo)
	ctx := context.Background()

	n, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.items[0].Status = domain.StatusApproved

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Refresh(cancelled, 7, 1); err != nil {
		t.Fatalf("refresh with dead consumer must be a no-op, got %v", err)
	}

	got, err := svc.Get(ctx, 7, n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("discarded mutation leaked into the snapshot: %s", got.Status)
	}

	// A live refresh afterwards picks the change up.
	if err := svc.Refresh(ctx, 7, 1); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got, _ := svc.Get(ctx, 7, n.ID); got.Status != domain.StatusApproved {
		t.Fatalf("live refresh did not converge: %s", got.Status)
	}
}

func TestRefresh_MissingNegotiationIsNoop(t *testing.T) {
	svc := newNegotiationService(&fakeNegotiationRepo{})
	if err := svc.Refresh(context.Background(), 7, 999); err != nil {
		t.Fatalf("refresh of absent pair must succeed: %v", err)
	}
}

func TestFindByCandidate_PrefersLatest(t *testing.T) {
	repo := &fakeNegotiationRepo{}
	svc := newNegotiationService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Transition(ctx, 7, first.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	second, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	got, err := svc.FindByCandidate(ctx, 7, 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != second.ID {
		t.Fatalf("expected the latest negotiation %d, got %d", second.ID, got.ID)
	}
}

func TestGet_ScopedToRenter(t *testing.T) {
	repo := &fakeNegotiationRepo{}
	svc := newNegotiationService(repo)
	ctx := context.Background()

	n, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got, err := svc.Get(ctx, 7, n.ID); err != nil || got.ID != n.ID {
		t.Fatalf("own negotiation: %+v %v", got, err)
	}
	// Another renter asking for the same id must not see it, snapshot or not.
	if _, err := svc.Get(ctx, 8, n.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign id: %v", err)
	}
}

func TestWithdraw_RemovesRecord(t *testing.T) {
	repo := &fakeNegotiationRepo{}
	svc := newNegotiationService(repo)
	ctx := context.Background()

	n, err := svc.Create(ctx, 7, candidate(1, 10), app.RequestDetails{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Withdraw(ctx, n.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := svc.FindByCandidate(ctx, 7, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after withdraw, got %v", err)
	}
}

func TestDeriveButtonState_Total(t *testing.T) {
	cases := []struct {
		name string
		n    *domain.Negotiation
		want app.ButtonState
	}{
		{"absent", nil, app.ButtonMakeRequest},
		{"pending", &domain.Negotiation{Status: domain.StatusPending}, app.ButtonPending},
		{"approved", &domain.Negotiation{Status: domain.StatusApproved}, app.ButtonChat},
		{"rejected", &domain.Negotiation{Status: domain.StatusRejected}, app.ButtonMakeRequest},
		{"cancelled", &domain.Negotiation{Status: domain.StatusCancelled}, app.ButtonMakeRequest},
		{"unknown", &domain.Negotiation{Status: domain.Status("archived")}, app.ButtonMakeRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := app.DeriveButtonState(tc.n); got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestCreate_RepoFailureWrapsCollaborator(t *testing.T) {
	repo := &fakeNegotiationRepo{err: errBoom}
	svc := newNegotiationService(repo)
	_, err := svc.Create(context.Background(), 7, candidate(1, 10), app.RequestDetails{})
	var ce *domain.CollaboratorError
	if !errors.As(err, &ce) || !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped collaborator error, got %v", err)
	}
}
