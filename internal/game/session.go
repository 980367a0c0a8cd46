package game

import (
	"errors"

	"k8s.io/klog/v2"
)

// ErrCardNotFound indicates a referenced id does not exist in the registry.
var ErrCardNotFound = errors.New("card not found")

// ErrEmptyLayout indicates a layout with no cards in either region.
var ErrEmptyLayout = errors.New("layout has no cards")

// ErrNothingToUndo indicates an undo request against an empty history.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrHistoryCorrupt indicates a recorded command references a card that no
// longer exists. The offending command is discarded; the rest of the
// history stays usable.
var ErrHistoryCorrupt = errors.New("undo history references a missing card")

// NoCard is the active card id while the active slot is empty.
const NoCard = -1

// CardSpec is one (rank, suit, position) tuple consumed from the level
// configuration. Pos is the card's position in level coordinates.
type CardSpec struct {
	Rank Rank
	Suit Suit
	Pos  Position
}

// Layout is the static input a session is generated from. Playfield order
// carries no meaning; Stock order is the draw sequence, and its last entry
// becomes the first active card.
type Layout struct {
	Playfield []CardSpec
	Stock     []CardSpec
}

// Session is one running game. It orchestrates every player intent:
// resolve the cards, ask the match rule, capture a command, mutate, then
// update the active card reference. Intents run to completion
// synchronously, and a Session is not safe for concurrent use; callers
// serving one session from several goroutines must serialize on their own
// mutex.
type Session struct {
	registry *Registry
	history  *History
	activeID int
	layout   Layout
}

// MoveResult is the outcome of a MakeMove or DrawFromWaste intent. A
// rejection is expected control flow, not an error: Accepted is false and
// Card is the zero Snapshot.
type MoveResult struct {
	Accepted bool
	Card     Snapshot
}

// UndoResult carries the card an undo restored.
type UndoResult struct {
	Card Snapshot
}

// NewSession generates a session from the given layout. A layout with no
// cards at all is the only configuration that prevents a session from
// starting.
func NewSession(layout Layout) (*Session, error) {
	if len(layout.Playfield) == 0 && len(layout.Stock) == 0 {
		return nil, ErrEmptyLayout
	}
	s := &Session{
		registry: NewRegistry(),
		history:  &History{},
		layout:   layout,
	}
	s.generate()
	return s, nil
}

// generate builds every card from the session layout in one pass,
// playfield first, then the stock fan. Ids are sequential from 0.
// Playfield cards start revealed at their level position lifted above the
// stock area. Stock cards start hidden along the fan, except the last one
// generated: it starts revealed in the active slot and becomes the first
// active card.
func (s *Session) generate() {
	s.activeID = NoCard
	id := 0
	for i, spec := range s.layout.Playfield {
		s.registry.Add(&Card{
			ID:     id,
			Rank:   spec.Rank,
			Suit:   spec.Suit,
			Region: RegionPlayfield,
			Origin: spec.Pos,
			Pos:    Position{X: spec.Pos.X, Y: spec.Pos.Y + PlayfieldOffsetY},
			State:  StateRevealed,
			Order:  i,
		})
		id++
	}
	for i, spec := range s.layout.Stock {
		c := &Card{
			ID:     id,
			Rank:   spec.Rank,
			Suit:   spec.Suit,
			Region: RegionStock,
			Origin: spec.Pos,
			Pos:    Position{X: StockPos.X + float64(i)*StockStep, Y: StockPos.Y},
			State:  StateHidden,
			Order:  i,
		}
		if i == len(s.layout.Stock)-1 {
			c.Pos = ActivePos
			c.State = StateRevealed
			c.Order = BaseOrder
			s.activeID = c.ID
		}
		s.registry.Add(c)
		id++
	}
	klog.V(1).Infof("Session generated: %d cards (%d playfield, %d stock), active card %d",
		s.registry.Len(), len(s.layout.Playfield), len(s.layout.Stock), s.activeID)
}

// Reset rebuilds the session from its layout. All cards are regenerated
// and the undo history is dropped.
func (s *Session) Reset() {
	s.registry.Clear()
	s.history.Clear()
	s.generate()
}

// GetCard returns a snapshot of the card with the given id.
func (s *Session) GetCard(id int) (Snapshot, error) {
	c, ok := s.registry.Lookup(id)
	if !ok {
		return Snapshot{}, ErrCardNotFound
	}
	return snapshotOf(c), nil
}

// GetActiveCard returns a snapshot of the card in the active slot. The
// second return is false while the slot is empty.
func (s *Session) GetActiveCard() (Snapshot, bool) {
	c, ok := s.registry.Lookup(s.activeID)
	if !ok {
		return Snapshot{}, false
	}
	return snapshotOf(c), true
}

// ActiveID returns the id of the active card, or NoCard.
func (s *Session) ActiveID() int {
	return s.activeID
}

// Cards returns snapshots of every card in generation order.
func (s *Session) Cards() []Snapshot {
	out := make([]Snapshot, 0, s.registry.Len())
	for _, c := range s.registry.All() {
		out = append(out, snapshotOf(c))
	}
	return out
}

// CanUndo reports whether an undo is available.
func (s *Session) CanUndo() bool {
	return s.history.CanUndo()
}

// MakeMove handles the player selecting a card to match against the
// active card. An accepted move relocates the candidate into the active
// slot, stacks it one order above the covered card, and makes it the new
// active card. A rejected move mutates nothing and records nothing.
func (s *Session) MakeMove(id int) (MoveResult, error) {
	candidate, ok := s.registry.Lookup(id)
	if !ok {
		return MoveResult{}, ErrCardNotFound
	}
	active, ok := s.registry.Lookup(s.activeID)
	if !ok {
		klog.V(1).Infof("MakeMove(%d): no active card, rejected", id)
		return MoveResult{}, nil
	}
	if !CanMatch(active, candidate) {
		klog.V(1).Infof("MakeMove(%d): %s of %s does not match active %s of %s, rejected",
			id, candidate.Rank, candidate.Suit, active.Rank, active.Suit)
		return MoveResult{}, nil
	}

	s.history.Push(Command{
		CardID:       candidate.ID,
		FromPos:      candidate.Pos,
		PrevActiveID: s.activeID,
		PrevState:    candidate.State,
		PrevOrder:    candidate.Order,
	})
	ApplyMove(candidate, ActivePos, s.nextOrder())
	s.activeID = candidate.ID
	klog.V(1).Infof("MakeMove(%d): accepted %s of %s, order %d", id, candidate.Rank, candidate.Suit, candidate.Order)
	return MoveResult{Accepted: true, Card: snapshotOf(candidate)}, nil
}

// DrawFromWaste handles the player selecting a face-down card from the
// stock fan. Only hidden stock cards are eligible; an accepted draw
// reveals the card and places it like an accepted move.
func (s *Session) DrawFromWaste(id int) (MoveResult, error) {
	card, ok := s.registry.Lookup(id)
	if !ok {
		return MoveResult{}, ErrCardNotFound
	}
	if card.Region != RegionStock || card.State != StateHidden {
		klog.V(1).Infof("DrawFromWaste(%d): not a hidden stock card (%s, %s), rejected",
			id, card.Region, card.State)
		return MoveResult{}, nil
	}

	s.history.Push(Command{
		CardID:       card.ID,
		FromPos:      card.Pos,
		PrevActiveID: s.activeID,
		PrevState:    card.State,
		PrevOrder:    card.Order,
	})
	if err := ApplyStateChange(card, StateRevealed); err != nil {
		// Unreachable: the eligibility check above guarantees a hidden card.
		return MoveResult{}, err
	}
	ApplyMove(card, ActivePos, s.nextOrder())
	s.activeID = card.ID
	klog.V(1).Infof("DrawFromWaste(%d): revealed %s of %s, order %d", id, card.Rank, card.Suit, card.Order)
	return MoveResult{Accepted: true, Card: snapshotOf(card)}, nil
}

// Undo reverses the most recent accepted intent: the touched card gets its
// recorded position, state and order back, and the active card reference
// returns to its recorded previous value.
func (s *Session) Undo() (UndoResult, error) {
	cmd, ok := s.history.Pop()
	if !ok {
		return UndoResult{}, ErrNothingToUndo
	}
	card, ok := s.registry.Lookup(cmd.CardID)
	if !ok {
		klog.Errorf("Undo: recorded command references missing card %d", cmd.CardID)
		return UndoResult{}, ErrHistoryCorrupt
	}
	if _, ok := s.registry.Lookup(cmd.PrevActiveID); !ok {
		klog.Errorf("Undo: recorded command references missing previous active card %d", cmd.PrevActiveID)
		return UndoResult{}, ErrHistoryCorrupt
	}
	ApplyMove(card, cmd.FromPos, cmd.PrevOrder)
	restoreState(card, cmd.PrevState)
	s.activeID = cmd.PrevActiveID
	klog.V(1).Infof("Undo: card %d back to (%.0f, %.0f), active back to %d",
		card.ID, card.Pos.X, card.Pos.Y, s.activeID)
	return UndoResult{Card: snapshotOf(card)}, nil
}

// nextOrder is the stacking order for a card arriving in the active slot:
// one above the current active card, or BaseOrder while the slot is empty.
func (s *Session) nextOrder() int {
	if active, ok := s.registry.Lookup(s.activeID); ok {
		return active.Order + 1
	}
	return BaseOrder
}
