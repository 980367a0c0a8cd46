package game

import "strconv"

// Rank is the ordinal face value of a card, Ace low.
// Ace and King count as adjacent for matching (the rank circle wraps).
type Rank int8

const (
	RankAce Rank = iota
	RankTwo
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
)

// RankNone marks a card whose level entry carried no usable face value.
const RankNone Rank = -1

// String returns the face label used on the card: A, 2..10, J, Q, K.
func (r Rank) String() string {
	switch r {
	case RankAce:
		return "A"
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	}
	if r >= RankTwo && r <= RankTen {
		return strconv.Itoa(int(r) + 1)
	}
	return "?"
}

// Suit is one of the four card suits.
type Suit int8

const (
	SuitClubs Suit = iota
	SuitDiamonds
	SuitHearts
	SuitSpades
)

// SuitNone marks a card whose level entry carried no usable suit.
const SuitNone Suit = -1

func (s Suit) String() string {
	switch s {
	case SuitClubs:
		return "clubs"
	case SuitDiamonds:
		return "diamonds"
	case SuitHearts:
		return "hearts"
	case SuitSpades:
		return "spades"
	default:
		return "none"
	}
}

// Red reports whether the suit paints red (diamonds and hearts).
func (s Suit) Red() bool {
	return s == SuitDiamonds || s == SuitHearts
}

// CardState is the visibility state of a card. A played-out card is marked
// StateRemoved rather than deleted from the registry.
type CardState int8

const (
	StateHidden CardState = iota
	StateRevealed
	StateRemoved
)

func (cs CardState) String() string {
	switch cs {
	case StateHidden:
		return "hidden"
	case StateRevealed:
		return "revealed"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Region is the pile a card was generated into. It is assigned once at
// generation time and never changes afterwards.
type Region int8

const (
	RegionPlayfield Region = iota
	RegionStock
)

func (r Region) String() string {
	switch r {
	case RegionPlayfield:
		return "playfield"
	case RegionStock:
		return "stock"
	default:
		return "unknown"
	}
}

// Position is a 2D board coordinate naming a card's center. The Y axis
// grows upwards, like the level files.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Card is a single card entity. ID, Rank, Suit, Region and Origin are fixed
// at generation time; Pos, State and Order change as the game is played.
type Card struct {
	ID     int       `json:"id"`
	Rank   Rank      `json:"rank"`
	Suit   Suit      `json:"suit"`
	Region Region    `json:"region"`
	Origin Position  `json:"origin"` // Level position the card was generated from
	Pos    Position  `json:"pos"`
	State  CardState `json:"state"`
	Order  int       `json:"order"` // Stacking order, higher paints on top
}

// Snapshot is the client-facing view of one card. It is a value copy:
// holding or mutating one never touches the registry.
type Snapshot struct {
	ID    int       `json:"id"`
	Rank  Rank      `json:"rank"`
	Suit  Suit      `json:"suit"`
	Pos   Position  `json:"pos"`
	State CardState `json:"state"`
	Order int       `json:"order"`
}

func snapshotOf(c *Card) Snapshot {
	return Snapshot{
		ID:    c.ID,
		Rank:  c.Rank,
		Suit:  c.Suit,
		Pos:   c.Pos,
		State: c.State,
		Order: c.Order,
	}
}
