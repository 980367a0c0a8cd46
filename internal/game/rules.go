package game

import "errors"

// ErrIllegalTransition indicates a forward state change outside the
// allowed transition table.
var ErrIllegalTransition = errors.New("illegal card state transition")

// CanMatch reports whether two cards may be matched: their ranks must be
// adjacent, or be the Ace/King pair closing the rank circle. It is
// symmetric and total. Nil cards, rankless cards and a card checked
// against itself all answer false.
func CanMatch(a, b *Card) bool {
	if a == nil || b == nil || a == b {
		return false
	}
	if a.Rank == RankNone || b.Rank == RankNone {
		return false
	}
	diff := a.Rank - b.Rank
	if diff == 1 || diff == -1 {
		return true
	}
	return (a.Rank == RankAce && b.Rank == RankKing) ||
		(a.Rank == RankKing && b.Rank == RankAce)
}

// ApplyMove sets a card's position and stacking order. It checks nothing:
// the session only calls it after a rule accepted the move, or while
// restoring a recorded command.
func ApplyMove(c *Card, pos Position, order int) {
	c.Pos = pos
	c.Order = order
}

// ApplyStateChange performs a forward visibility transition. Only
// hidden→revealed (a draw) and revealed→removed (a played-out card) are
// allowed; anything else returns ErrIllegalTransition. Undo restoration
// does not come through here, it uses restoreState.
func ApplyStateChange(c *Card, next CardState) error {
	legal := (c.State == StateHidden && next == StateRevealed) ||
		(c.State == StateRevealed && next == StateRemoved)
	if !legal {
		return ErrIllegalTransition
	}
	c.State = next
	return nil
}

// restoreState sets a card's state to a previously recorded value.
// Reserved for the undo path, which may reverse transitions the forward
// table forbids.
func restoreState(c *Card, s CardState) {
	c.State = s
}
