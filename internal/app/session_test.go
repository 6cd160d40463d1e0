package app_test

import (
	"context"
	"errors"
	"testing"

	"rentmatch/internal/app"
	"rentmatch/internal/domain"
)

func records(ids ...int64) []domain.PropertyRecord {
	out := make([]domain.PropertyRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.PropertyRecord{ID: id})
	}
	return out
}

func TestSession_ExcludesFavoritedBeforeCursor(t *testing.T) {
	favs := newFakeFavorites(2)
	s, err := app.NewDecisionSession(context.Background(), records(1, 2, 3), 7, favs, nil, nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("len: %d", s.Len())
	}
	cur, ok := s.Current()
	if !ok || cur.ID != 1 {
		t.Fatalf("current: %+v %v", cur, ok)
	}
	next, ok := s.Next()
	if !ok || next.ID != 3 {
		t.Fatalf("next: %+v %v", next, ok)
	}
}

func TestSession_DecideEmitsThenAdvances(t *testing.T) {
	var gotID int64
	var gotDir app.Direction
	s, err := app.NewDecisionSession(context.Background(), records(1, 2), 7, newFakeFavorites(),
		func(p domain.PropertyRecord, dir app.Direction) { gotID, gotDir = p.ID, dir }, nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !s.Decide(app.DirectionLike) {
		t.Fatalf("decide on live session returned false")
	}
	if gotID != 1 || gotDir != app.DirectionLike {
		t.Fatalf("callback saw %d/%v", gotID, gotDir)
	}
	cur, _ := s.Current()
	if cur.ID != 2 {
		t.Fatalf("cursor did not advance: %+v", cur)
	}
}

func TestSession_ExhaustedSignalFiresOnce(t *testing.T) {
	exhausted := 0
	s, err := app.NewDecisionSession(context.Background(), records(1), 7, newFakeFavorites(),
		nil, func() { exhausted++ })
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !s.Decide(app.DirectionPass) {
		t.Fatalf("first decide failed")
	}
	if !s.Exhausted() {
		t.Fatalf("not exhausted after last candidate")
	}
	if s.Decide(app.DirectionPass) {
		t.Fatalf("decide on exhausted session must be a no-op")
	}
	if exhausted != 1 {
		t.Fatalf("exhausted signal fired %d times", exhausted)
	}
}

func TestSession_BornEmptySignalsOnce(t *testing.T) {
	exhausted := 0
	s, err := app.NewDecisionSession(context.Background(), records(1, 2), 7, newFakeFavorites(1, 2),
		nil, func() { exhausted++ })
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !s.Exhausted() {
		t.Fatalf("session over an emptied list must be exhausted")
	}
	if exhausted != 1 {
		t.Fatalf("exhausted signal fired %d times at birth", exhausted)
	}
	if s.Decide(app.DirectionPass) {
		t.Fatalf("decide on a born-empty session must be a no-op")
	}
	if exhausted != 1 {
		t.Fatalf("exhausted signal re-fired: %d", exhausted)
	}
}

func TestSession_FavoritesErrorSurfaces(t *testing.T) {
	favs := newFakeFavorites()
	favs.err = errBoom
	_, err := app.NewDecisionSession(context.Background(), records(1), 7, favs, nil, nil)
	var ce *domain.CollaboratorError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
}

// ---- gesture classification ----

func TestClassifyGesture(t *testing.T) {
	const width = 400.0
	cases := []struct {
		name    string
		g       app.Gesture
		wantDir app.Direction
		wantOK  bool
	}{
		{"right past displacement threshold", app.Gesture{DX: 120, ViewportWidth: width}, app.DirectionLike, true},
		{"left past displacement threshold", app.Gesture{DX: -130, ViewportWidth: width}, app.DirectionPass, true},
		{"below displacement and velocity", app.Gesture{DX: 60, VX: 200, ViewportWidth: width}, 0, false},
		{"right flick below displacement", app.Gesture{DX: 40, VX: 900, ViewportWidth: width}, app.DirectionLike, true},
		{"left flick", app.Gesture{DX: -30, VX: -1200, ViewportWidth: width}, app.DirectionPass, true},
		{"upward drag", app.Gesture{DX: 20, DY: -160, ViewportWidth: width}, app.DirectionMoreInfo, true},
		{"diagonal mostly horizontal", app.Gesture{DX: 200, DY: -150, ViewportWidth: width}, app.DirectionLike, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir, ok := app.ClassifyGesture(tc.g)
			if ok != tc.wantOK {
				t.Fatalf("ok=%v want %v", ok, tc.wantOK)
			}
			if ok && dir != tc.wantDir {
				t.Fatalf("dir=%v want %v", dir, tc.wantDir)
			}
		})
	}
}

func TestSession_SubThresholdReleaseDoesNotAdvance(t *testing.T) {
	s, err := app.NewDecisionSession(context.Background(), records(1, 2), 7, newFakeFavorites(), nil, nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, ok := app.ClassifyGesture(app.Gesture{DX: 30, ViewportWidth: 400}); ok {
		t.Fatalf("sub-threshold release classified")
	}
	// No direction means no Decide call; cursor must be untouched.
	cur, _ := s.Current()
	if cur.ID != 1 {
		t.Fatalf("cursor moved: %+v", cur)
	}
}
