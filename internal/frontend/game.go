package frontend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/janpfeifer/GoPeaks/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// GlowDuration is how long a card flashes after the server rejects an
// action on it.
const GlowDuration = 500 * time.Millisecond

// Game is the component that renders one board and routes card clicks
// to the server.
type Game struct {
	app.Compo
	LevelID int
	Error   string

	// Click state. pendingID is the card clicked last, so a rejection
	// coming back from the server knows which card to flash.
	pendingID  int
	rejectedID int
	rejectSeen int

	onUpdate func()
}

func (g *Game) OnAppUpdate(ctx app.Context) {
	klog.Infof("Game component: App update available, not reloading not to interrupt the game...")
	//ctx.Reload()
}

func (g *Game) OnMount(ctx app.Context) {
	klog.Infof("Game component: OnMount called")
	g.pendingID = game.NoCard
	g.rejectedID = game.NoCard
	g.rejectSeen = State.RejectSeq
	g.onUpdate = func() {
		klog.Infof("Game component: Notify received")
		ctx.Dispatch(func(ctx app.Context) {
			if State.RejectSeq != g.rejectSeen {
				g.rejectSeen = State.RejectSeq
				g.flashRejected(ctx)
			} else {
				g.pendingID = game.NoCard
			}
		})
	}
	State.Listeners["game"] = g.onUpdate

	State.SyncMusic()
}

func (g *Game) OnDismount() {
	klog.Infof("Game component: OnDismount called")
	delete(State.Listeners, "game")
}

func (g *Game) OnNav(ctx app.Context) {
	klog.Infof("Game component: OnNav called")
	State.SyncMusic()

	path := app.Window().URL().Path
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	klog.Infof("Game component: Navigated to %s, parts: %v", path, parts)
	if len(parts) >= 2 && parts[0] == "game" {
		levelID, err := strconv.Atoi(parts[1])
		if err != nil {
			g.Error = fmt.Sprintf("Not a level: %q", parts[1])
			klog.Errorf("Game component: Error: %s", g.Error)
			return
		}
		g.LevelID = levelID
	}

	if g.LevelID == 0 {
		g.Error = "No level provided"
		klog.Errorf("Game component: Error: %s", g.Error)
		return
	}

	if app.IsServer {
		// Prerendering; the browser side connects after hydration.
		return
	}

	klog.Infof("Game component: Connecting to level: %d", g.LevelID)
	if State.Conn == nil || State.LevelID != g.LevelID || State.SessionID == "" {
		// Resume the session remembered for this level, if any. An empty
		// id makes the server deal a fresh board.
		sessionID := getCookie(sessionCookieName(g.LevelID))
		if err := State.ConnectWS(sessionID, g.LevelID); err != nil {
			g.Error = fmt.Sprintf("Failed to connect to game: %v", err)
			klog.Errorf("Game component: %s", g.Error)
		}
	}
}

// flashRejected marks the last clicked card as rejected and schedules the
// flash to fade.
func (g *Game) flashRejected(ctx app.Context) {
	if g.pendingID == game.NoCard {
		return
	}
	g.rejectedID = g.pendingID
	g.pendingID = game.NoCard
	rejected := g.rejectedID
	time.AfterFunc(GlowDuration, func() {
		ctx.Dispatch(func(ctx app.Context) {
			if g.rejectedID == rejected {
				g.rejectedID = game.NoCard
			}
		})
	})
}

func (g *Game) onCardClick(id int) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		c, ok := State.Cards[id]
		if !ok {
			return
		}
		klog.Infof("Game component: Clicked card %d (%s of %s, %s)", id, c.Rank, c.Suit, c.State)
		switch {
		case c.State == game.StateHidden:
			g.pendingID = id
			State.SendDraw(id)
		case c.State == game.StateRevealed && id != State.ActiveID:
			g.pendingID = id
			State.SendMove(id)
		}
	}
}

func (g *Game) onUndo(ctx app.Context, e app.Event) {
	State.SendUndo()
}

func (g *Game) onRestart(ctx app.Context, e app.Event) {
	State.SendRestart()
}

// sortedCards returns the cards still on the board in a stable id order,
// so re-renders do not shuffle the DOM. Stacking is done with z-index.
func sortedCards() []game.Snapshot {
	cards := make([]game.Snapshot, 0, len(State.Cards))
	for _, c := range State.Cards {
		if c.State != game.StateRemoved {
			cards = append(cards, c)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards
}

func suitGlyph(s game.Suit) string {
	switch s {
	case game.SuitClubs:
		return "♣"
	case game.SuitDiamonds:
		return "♦"
	case game.SuitHearts:
		return "♥"
	case game.SuitSpades:
		return "♠"
	default:
		return "·"
	}
}

// renderCard places one card on the board. Positions name card centers
// with Y growing upwards; CSS wants the top-left corner with Y growing
// downwards, in percent of the board.
func (g *Game) renderCard(c game.Snapshot) app.UI {
	left := (c.Pos.X - game.CardWidth/2) / game.BoardWidth * 100
	top := (game.BoardHeight - c.Pos.Y - game.CardHeight/2) / game.BoardHeight * 100

	classes := "card"
	switch {
	case c.State == game.StateHidden:
		classes += " card-back"
	case c.Suit.Red():
		classes += " card-red"
	default:
		classes += " card-black"
	}
	if c.ID == State.ActiveID {
		classes += " card-active"
	}
	if c.ID == g.rejectedID {
		classes += " card-rejected"
	}

	div := app.Div().
		Class(classes).
		Style("left", fmt.Sprintf("%.3f%%", left)).
		Style("top", fmt.Sprintf("%.3f%%", top)).
		Style("z-index", strconv.Itoa(c.Order)).
		OnClick(g.onCardClick(c.ID))

	if c.State == game.StateHidden {
		return div
	}

	label := c.Rank.String()
	glyph := suitGlyph(c.Suit)
	return div.Body(
		app.Div().Class("card-corner").Text(label+glyph),
		app.Div().Class("card-pip").Text(glyph),
		app.Div().Class("card-corner card-corner-bottom").Text(label+glyph),
	)
}

func (g *Game) renderBoard() app.UI {
	cards := sortedCards()
	items := make([]app.UI, 0, len(cards)+1)
	for _, c := range cards {
		items = append(items, g.renderCard(c))
	}
	if State.BoardCleared() {
		items = append(items, app.Div().Class("win-banner").Body(
			app.H2().Text("Board cleared!"),
			app.Button().Text("Play again").OnClick(g.onRestart),
		))
	}

	body := []app.UI{
		app.Div().Class("game-controls").Body(
			app.Strong().Text(fmt.Sprintf("Level %d", g.LevelID)),
			app.Button().Class("secondary").Text("Undo").Disabled(!State.CanUndo).OnClick(g.onUndo),
			app.Button().Class("secondary outline").Text("Restart").OnClick(g.onRestart),
		),
	}
	if State.Error != "" {
		body = append(body, app.P().Style("color", "red").Text(State.Error))
	}
	body = append(body, app.Div().Class("board").Body(items...))
	return app.Div().Body(body...)
}

func (g *Game) Render() app.UI {
	if g.Error != "" {
		return app.Main().Class("container").Body(
			app.Article().Body(
				app.H2().Text("Game Error"),
				app.P().Style("color", "red").Text(g.Error),
				app.A().Href("#").OnClick(func(ctx app.Context, e app.Event) {
					g.Error = ""
					State.Error = ""
					ctx.Navigate("/")
				}).Text("Return to Home"),
			),
		)
	}

	var content app.UI
	if len(State.Cards) == 0 {
		if State.Error != "" {
			content = app.Article().Body(
				app.H2().Text("Game Error"),
				app.P().Style("color", "red").Text(State.Error),
				app.A().Href("#").OnClick(func(ctx app.Context, e app.Event) {
					State.Error = ""
					ctx.Navigate("/")
				}).Text("Return to Home"),
			)
		} else {
			content = app.Div().Aria("busy", "true").Text("Dealing the cards...")
		}
	} else {
		content = g.renderBoard()
	}

	return app.Main().Class("container").Body(
		&TopBar{},
		content,
	)
}
