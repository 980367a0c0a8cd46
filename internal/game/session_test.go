package game

import (
	"errors"
	"testing"
)

func cardAt(rank Rank, suit Suit, x, y float64) CardSpec {
	return CardSpec{Rank: rank, Suit: suit, Pos: Position{X: x, Y: y}}
}

func mustSession(t *testing.T, layout Layout) *Session {
	t.Helper()
	s, err := NewSession(layout)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestNewSessionEmptyLayout(t *testing.T) {
	if _, err := NewSession(Layout{}); !errors.Is(err, ErrEmptyLayout) {
		t.Fatalf("NewSession(empty) error = %v, want %v", err, ErrEmptyLayout)
	}

	// One region alone is enough to start.
	if _, err := NewSession(Layout{Playfield: []CardSpec{cardAt(RankAce, SuitClubs, 0, 0)}}); err != nil {
		t.Errorf("NewSession(playfield only) error = %v", err)
	}
	if _, err := NewSession(Layout{Stock: []CardSpec{cardAt(RankAce, SuitClubs, 0, 0)}}); err != nil {
		t.Errorf("NewSession(stock only) error = %v", err)
	}
}

// TestSessionGeneration checks the initial board: sequential ids, playfield
// cards revealed above the stock area, stock cards hidden along the fan,
// and the last stock card revealed in the active slot at the base order.
func TestSessionGeneration(t *testing.T) {
	s := mustSession(t, Layout{
		Playfield: []CardSpec{
			cardAt(RankTwo, SuitClubs, 100, 200),
			cardAt(RankNine, SuitHearts, 300, 400),
		},
		Stock: []CardSpec{
			cardAt(RankFour, SuitSpades, 0, 0),
			cardAt(RankJack, SuitDiamonds, 0, 0),
			cardAt(RankSix, SuitClubs, 0, 0),
		},
	})

	cards := s.Cards()
	if len(cards) != 5 {
		t.Fatalf("generated %d cards, want 5", len(cards))
	}
	for i, c := range cards {
		if c.ID != i {
			t.Errorf("cards[%d].ID = %d, want %d", i, c.ID, i)
		}
	}

	// Playfield: level position lifted by the playfield offset, revealed,
	// orders follow the layout.
	for i, want := range []Position{{X: 100, Y: 200 + PlayfieldOffsetY}, {X: 300, Y: 400 + PlayfieldOffsetY}} {
		c := cards[i]
		if c.Pos != want {
			t.Errorf("playfield card %d at %+v, want %+v", c.ID, c.Pos, want)
		}
		if c.State != StateRevealed {
			t.Errorf("playfield card %d state = %s, want %s", c.ID, c.State, StateRevealed)
		}
		if c.Order != i {
			t.Errorf("playfield card %d order = %d, want %d", c.ID, c.Order, i)
		}
	}

	// Stock fan: hidden, stepped to the right of the stock anchor.
	for i, c := range cards[2:4] {
		want := Position{X: StockPos.X + float64(i)*StockStep, Y: StockPos.Y}
		if c.Pos != want {
			t.Errorf("stock card %d at %+v, want %+v", c.ID, c.Pos, want)
		}
		if c.State != StateHidden {
			t.Errorf("stock card %d state = %s, want %s", c.ID, c.State, StateHidden)
		}
		if c.Order != i {
			t.Errorf("stock card %d order = %d, want %d", c.ID, c.Order, i)
		}
	}

	// Last stock card opens the game in the active slot.
	last := cards[4]
	if last.Pos != ActivePos || last.State != StateRevealed || last.Order != BaseOrder {
		t.Errorf("last stock card = %+v, want revealed at %+v with order %d", last, ActivePos, BaseOrder)
	}
	if s.ActiveID() != last.ID {
		t.Errorf("ActiveID = %d, want %d", s.ActiveID(), last.ID)
	}
	active, ok := s.GetActiveCard()
	if !ok || active.ID != last.ID {
		t.Errorf("GetActiveCard = %+v ok=%t, want id %d", active, ok, last.ID)
	}
	if s.CanUndo() {
		t.Errorf("fresh session reports CanUndo")
	}
}

func TestSessionGenerationPlayfieldOnly(t *testing.T) {
	s := mustSession(t, Layout{Playfield: []CardSpec{cardAt(RankSix, SuitClubs, 100, 100)}})

	if s.ActiveID() != NoCard {
		t.Fatalf("ActiveID = %d, want %d", s.ActiveID(), NoCard)
	}
	if _, ok := s.GetActiveCard(); ok {
		t.Errorf("GetActiveCard reported a card in an empty active slot")
	}

	// Without an active card every move is rejected, never an error.
	res, err := s.MakeMove(0)
	if err != nil {
		t.Fatalf("MakeMove error = %v", err)
	}
	if res.Accepted {
		t.Errorf("MakeMove accepted with an empty active slot")
	}
	if s.CanUndo() {
		t.Errorf("rejected move left an undo entry")
	}
}

func TestMakeMoveOutcomes(t *testing.T) {
	tcs := []struct {
		name      string
		candidate Rank
		active    Rank
		accepted  bool
	}{
		{"one above", RankSix, RankFive, true},
		{"one below", RankFour, RankFive, true},
		{"two apart", RankSeven, RankFive, false},
		{"equal ranks", RankFive, RankFive, false},
		{"ace on king", RankAce, RankKing, true},
		{"king on ace", RankKing, RankAce, true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Card 0 on the playfield, card 1 active in the slot.
			s := mustSession(t, Layout{
				Playfield: []CardSpec{cardAt(tc.candidate, SuitClubs, 100, 100)},
				Stock:     []CardSpec{cardAt(tc.active, SuitHearts, 0, 0)},
			})
			before, _ := s.GetCard(0)

			res, err := s.MakeMove(0)
			if err != nil {
				t.Fatalf("MakeMove error = %v", err)
			}
			if res.Accepted != tc.accepted {
				t.Fatalf("MakeMove accepted = %t, want %t", res.Accepted, tc.accepted)
			}

			got, _ := s.GetCard(0)
			if tc.accepted {
				if got.Pos != ActivePos {
					t.Errorf("moved card at %+v, want %+v", got.Pos, ActivePos)
				}
				if got.Order != BaseOrder+1 {
					t.Errorf("moved card order = %d, want %d", got.Order, BaseOrder+1)
				}
				if s.ActiveID() != 0 {
					t.Errorf("ActiveID = %d, want 0", s.ActiveID())
				}
				if !s.CanUndo() {
					t.Errorf("accepted move left no undo entry")
				}
				// The covered card keeps its place under the new arrival.
				covered, _ := s.GetCard(1)
				if covered.Pos != ActivePos || covered.Order != BaseOrder {
					t.Errorf("covered card = %+v, want untouched at %+v order %d", covered, ActivePos, BaseOrder)
				}
			} else {
				if got != before {
					t.Errorf("rejected move mutated the card: %+v, want %+v", got, before)
				}
				if s.ActiveID() != 1 {
					t.Errorf("rejected move changed ActiveID to %d", s.ActiveID())
				}
				if s.CanUndo() {
					t.Errorf("rejected move left an undo entry")
				}
			}
		})
	}
}

func TestMakeMoveUnknownCard(t *testing.T) {
	s := mustSession(t, Layout{Stock: []CardSpec{cardAt(RankFive, SuitClubs, 0, 0)}})

	if _, err := s.MakeMove(99); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("MakeMove(99) error = %v, want %v", err, ErrCardNotFound)
	}
	if _, err := s.DrawFromWaste(99); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("DrawFromWaste(99) error = %v, want %v", err, ErrCardNotFound)
	}
	if _, err := s.GetCard(99); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("GetCard(99) error = %v, want %v", err, ErrCardNotFound)
	}
	if s.ActiveID() != 0 || s.CanUndo() {
		t.Errorf("failed intents mutated the session")
	}
}

// TestDrawFromWaste draws a face-down King while an Ace holds the active
// slot. The draw needs no rank match: the King is revealed, relocated and
// becomes the new active card.
func TestDrawFromWaste(t *testing.T) {
	s := mustSession(t, Layout{Stock: []CardSpec{
		cardAt(RankKing, SuitSpades, 0, 0),
		cardAt(RankAce, SuitHearts, 0, 0),
	}})

	res, err := s.DrawFromWaste(0)
	if err != nil {
		t.Fatalf("DrawFromWaste error = %v", err)
	}
	if !res.Accepted {
		t.Fatalf("DrawFromWaste rejected a hidden stock card")
	}
	if res.Card.State != StateRevealed {
		t.Errorf("drawn card state = %s, want %s", res.Card.State, StateRevealed)
	}
	if res.Card.Pos != ActivePos {
		t.Errorf("drawn card at %+v, want %+v", res.Card.Pos, ActivePos)
	}
	if res.Card.Order != BaseOrder+1 {
		t.Errorf("drawn card order = %d, want %d", res.Card.Order, BaseOrder+1)
	}
	if s.ActiveID() != 0 {
		t.Errorf("ActiveID = %d, want 0", s.ActiveID())
	}
	if !s.CanUndo() {
		t.Errorf("accepted draw left no undo entry")
	}
}

func TestDrawFromWasteRejected(t *testing.T) {
	s := mustSession(t, Layout{
		Playfield: []CardSpec{cardAt(RankSix, SuitClubs, 100, 100)},
		Stock: []CardSpec{
			cardAt(RankKing, SuitSpades, 0, 0),
			cardAt(RankAce, SuitHearts, 0, 0),
		},
	})

	tcs := []struct {
		name string
		id   int
	}{
		{"playfield card", 0},
		{"already revealed stock card", 2},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			before, _ := s.GetCard(tc.id)
			res, err := s.DrawFromWaste(tc.id)
			if err != nil {
				t.Fatalf("DrawFromWaste error = %v", err)
			}
			if res.Accepted {
				t.Fatalf("DrawFromWaste accepted an ineligible card")
			}
			if got, _ := s.GetCard(tc.id); got != before {
				t.Errorf("rejected draw mutated the card: %+v, want %+v", got, before)
			}
			if s.CanUndo() {
				t.Errorf("rejected draw left an undo entry")
			}
		})
	}

	// A card already drawn is no longer eligible either.
	if res, err := s.DrawFromWaste(1); err != nil || !res.Accepted {
		t.Fatalf("DrawFromWaste(1) = %+v, %v", res, err)
	}
	if res, _ := s.DrawFromWaste(1); res.Accepted {
		t.Errorf("DrawFromWaste accepted the same card twice")
	}
}

// TestUndoRestoresMove plays a single accepted move and undoes it: the
// card must return to its exact position, state and order, and the active
// slot must hold the previous card again.
func TestUndoRestoresMove(t *testing.T) {
	s := mustSession(t, Layout{
		Playfield: []CardSpec{cardAt(RankSix, SuitClubs, 100, 100)},
		Stock:     []CardSpec{cardAt(RankFive, SuitHearts, 0, 0)},
	})
	before, _ := s.GetCard(0)

	if res, err := s.MakeMove(0); err != nil || !res.Accepted {
		t.Fatalf("MakeMove = %+v, %v", res, err)
	}
	res, err := s.Undo()
	if err != nil {
		t.Fatalf("Undo error = %v", err)
	}
	if res.Card != before {
		t.Errorf("Undo restored %+v, want %+v", res.Card, before)
	}
	if got, _ := s.GetCard(0); got != before {
		t.Errorf("card after undo = %+v, want %+v", got, before)
	}
	if s.ActiveID() != 1 {
		t.Errorf("ActiveID after undo = %d, want 1", s.ActiveID())
	}
	if s.CanUndo() {
		t.Errorf("CanUndo still true after undoing the only move")
	}
}

// TestUndoRestoresDraw checks the one transition the forward rules forbid:
// undoing a draw turns the card face down again.
func TestUndoRestoresDraw(t *testing.T) {
	s := mustSession(t, Layout{Stock: []CardSpec{
		cardAt(RankKing, SuitSpades, 0, 0),
		cardAt(RankAce, SuitHearts, 0, 0),
	}})
	before, _ := s.GetCard(0)

	if res, err := s.DrawFromWaste(0); err != nil || !res.Accepted {
		t.Fatalf("DrawFromWaste = %+v, %v", res, err)
	}
	if _, err := s.Undo(); err != nil {
		t.Fatalf("Undo error = %v", err)
	}
	got, _ := s.GetCard(0)
	if got != before {
		t.Errorf("card after undo = %+v, want %+v", got, before)
	}
	if got.State != StateHidden {
		t.Errorf("undone draw left the card %s, want %s", got.State, StateHidden)
	}
	if s.ActiveID() != 1 {
		t.Errorf("ActiveID after undo = %d, want 1", s.ActiveID())
	}
}

// TestUndoPerfectInverse runs a chain of accepted intents and undoes all
// of them: every card and the active slot must be byte for byte back at
// the initial board.
func TestUndoPerfectInverse(t *testing.T) {
	s := mustSession(t, Layout{
		Playfield: []CardSpec{
			cardAt(RankSix, SuitClubs, 100, 100),
			cardAt(RankSeven, SuitHearts, 300, 100),
			cardAt(RankEight, SuitSpades, 500, 100),
		},
		Stock: []CardSpec{
			cardAt(RankFour, SuitDiamonds, 0, 0),
			cardAt(RankFive, SuitClubs, 0, 0),
		},
	})
	initial := s.Cards()
	initialActive := s.ActiveID()

	// Five is active; chain Six, Seven, Eight off it, then draw the Four.
	intents := []func() (MoveResult, error){
		func() (MoveResult, error) { return s.MakeMove(0) },
		func() (MoveResult, error) { return s.MakeMove(1) },
		func() (MoveResult, error) { return s.MakeMove(2) },
		func() (MoveResult, error) { return s.DrawFromWaste(3) },
	}
	lastOrder := BaseOrder
	for i, intent := range intents {
		res, err := intent()
		if err != nil || !res.Accepted {
			t.Fatalf("intent %d = %+v, %v", i, res, err)
		}
		// Each arrival stacks strictly above the card it covers.
		if res.Card.Order <= lastOrder {
			t.Fatalf("intent %d order = %d, want above %d", i, res.Card.Order, lastOrder)
		}
		lastOrder = res.Card.Order
	}

	for i := range intents {
		if _, err := s.Undo(); err != nil {
			t.Fatalf("undo %d error = %v", i, err)
		}
	}

	got := s.Cards()
	for i := range initial {
		if got[i] != initial[i] {
			t.Errorf("card %d after full undo = %+v, want %+v", i, got[i], initial[i])
		}
	}
	if s.ActiveID() != initialActive {
		t.Errorf("ActiveID after full undo = %d, want %d", s.ActiveID(), initialActive)
	}
	if _, err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("extra Undo error = %v, want %v", err, ErrNothingToUndo)
	}
}

func TestUndoEmptyHistory(t *testing.T) {
	s := mustSession(t, Layout{Stock: []CardSpec{cardAt(RankFive, SuitClubs, 0, 0)}})
	before := s.Cards()

	if _, err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("Undo error = %v, want %v", err, ErrNothingToUndo)
	}
	got := s.Cards()
	for i := range before {
		if got[i] != before[i] {
			t.Errorf("empty undo mutated card %d: %+v, want %+v", i, got[i], before[i])
		}
	}
	if s.ActiveID() != 0 {
		t.Errorf("empty undo changed ActiveID to %d", s.ActiveID())
	}
}

// TestUndoCorruptHistory feeds the history commands that reference cards
// the registry does not hold. Each corrupt command is reported and
// discarded; commands below it stay usable.
func TestUndoCorruptHistory(t *testing.T) {
	s := mustSession(t, Layout{
		Playfield: []CardSpec{cardAt(RankSix, SuitClubs, 100, 100)},
		Stock:     []CardSpec{cardAt(RankFive, SuitHearts, 0, 0)},
	})

	s.history.Push(Command{CardID: 42, PrevActiveID: 1})
	if _, err := s.Undo(); !errors.Is(err, ErrHistoryCorrupt) {
		t.Fatalf("Undo with missing card error = %v, want %v", err, ErrHistoryCorrupt)
	}
	if s.CanUndo() {
		t.Errorf("corrupt command was not discarded")
	}

	s.history.Push(Command{CardID: 0, PrevActiveID: 42})
	if _, err := s.Undo(); !errors.Is(err, ErrHistoryCorrupt) {
		t.Fatalf("Undo with missing previous active error = %v, want %v", err, ErrHistoryCorrupt)
	}

	// A valid command below a corrupt one survives it.
	before, _ := s.GetCard(0)
	if res, err := s.MakeMove(0); err != nil || !res.Accepted {
		t.Fatalf("MakeMove = %+v, %v", res, err)
	}
	s.history.Push(Command{CardID: 42, PrevActiveID: 0})
	if _, err := s.Undo(); !errors.Is(err, ErrHistoryCorrupt) {
		t.Fatalf("Undo error = %v, want %v", err, ErrHistoryCorrupt)
	}
	if _, err := s.Undo(); err != nil {
		t.Fatalf("Undo after discarding corrupt command error = %v", err)
	}
	if got, _ := s.GetCard(0); got != before {
		t.Errorf("card after undo = %+v, want %+v", got, before)
	}
}

func TestSessionReset(t *testing.T) {
	s := mustSession(t, Layout{
		Playfield: []CardSpec{cardAt(RankSix, SuitClubs, 100, 100)},
		Stock: []CardSpec{
			cardAt(RankFour, SuitDiamonds, 0, 0),
			cardAt(RankFive, SuitHearts, 0, 0),
		},
	})
	initial := s.Cards()
	initialActive := s.ActiveID()

	if res, err := s.MakeMove(0); err != nil || !res.Accepted {
		t.Fatalf("MakeMove = %+v, %v", res, err)
	}
	if res, err := s.DrawFromWaste(1); err != nil || !res.Accepted {
		t.Fatalf("DrawFromWaste = %+v, %v", res, err)
	}

	s.Reset()
	got := s.Cards()
	if len(got) != len(initial) {
		t.Fatalf("Reset produced %d cards, want %d", len(got), len(initial))
	}
	for i := range initial {
		if got[i] != initial[i] {
			t.Errorf("card %d after reset = %+v, want %+v", i, got[i], initial[i])
		}
	}
	if s.ActiveID() != initialActive {
		t.Errorf("ActiveID after reset = %d, want %d", s.ActiveID(), initialActive)
	}
	if s.CanUndo() {
		t.Errorf("Reset kept the undo history")
	}
}
