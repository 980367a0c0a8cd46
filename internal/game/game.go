package game

// Version of the game.
// Bumping this number will eventually make clients reload the WASM.
//
// If you set this to an empty string, a random version number will be
// used, and force the reload of the WASM on every restart (the reload
// still only happens after the first page is loaded, so there is a delay).
// This is useful during development.
var Version = "v0.1.0"

// Logical board the engine positions cards in. Level files use the same
// coordinate space; the client scales it to the viewport.
const (
	BoardWidth  = 1080
	BoardHeight = 1920
)

// Card dimensions in board coordinates.
const (
	CardWidth  = 182
	CardHeight = 282
)

// StockAreaHeight is the bottom strip holding the stock fan and the
// active slot. Playfield cards are lifted above it at generation time.
const StockAreaHeight = 580

// StockPos is the anchor of the face-down stock fan.
var StockPos = Position{X: BoardWidth/2 - 250, Y: 290}

// ActivePos is the fixed slot a drawn or matched card lands in.
var ActivePos = Position{X: BoardWidth/2 + 150, Y: 290}

// StockStep is the horizontal distance between consecutive stock cards.
const StockStep = 70

// PlayfieldOffsetY lifts level playfield coordinates above the stock area.
const PlayfieldOffsetY = 250

// BaseOrder is the stacking order of the first card in the active slot;
// every later arrival stacks one order above the card it covers.
const BaseOrder = 100
