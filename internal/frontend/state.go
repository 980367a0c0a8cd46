package frontend

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/janpfeifer/GoPeaks/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// GlobalClientState manages the connection and the board state mirrored
// from the server.
type GlobalClientState struct {
	SessionID string
	LevelID   int
	Error     string
	Conn      *websocket.Conn

	// Board state (authoritative copy lives on the server)
	Cards    map[int]game.Snapshot
	ActiveID int
	CanUndo  bool

	// RejectSeq increments on every rejected intent so components can
	// tell a fresh rejection from the previous one.
	RejectSeq int

	// Music state
	SoundEnabled bool
	Music        app.Value
	musicStop    chan struct{}

	// Listeners for state updates
	Listeners map[string]func()
}

var State *GlobalClientState

func InitState() {
	if State == nil {
		klog.V(1).Infof("InitState: creating new state (was nil)")
		State = &GlobalClientState{
			Cards:        make(map[int]game.Snapshot),
			ActiveID:     game.NoCard,
			Listeners:    make(map[string]func()),
			SoundEnabled: true,
		}
	} else {
		klog.V(1).Infof("InitState: state already exists")
	}
}

func (s *GlobalClientState) ToggleSound() {
	s.SoundEnabled = !s.SoundEnabled
	klog.Infof("ToggleSound: SoundEnabled is now %v", s.SoundEnabled)
	s.SyncMusic()
	s.Notify()
}

func (s *GlobalClientState) PlaySound(url string) {
	// SoundEnabled only gates the music, not the card sound effects
	audio := app.Window().Get("document").Call("createElement", "audio")
	audio.Set("src", url)

	// Play the sound (fire and forget)
	promise := audio.Call("play")
	if promise.Truthy() {
		promise.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			audio.Set("volume", 1.0)
			return nil
		}))
		promise.Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			klog.Errorf("PlaySound: Failed to play %s: %v", url, args[0])
			return nil
		}))
	}
}

func (s *GlobalClientState) SyncMusic() {
	if app.IsServer {
		return
	}

	if !s.SoundEnabled {
		if s.musicStop != nil {
			klog.Infof("SyncMusic: Stopping music loop (SoundEnabled=false)")
			close(s.musicStop)
			s.musicStop = nil
			if s.Music != nil && s.Music.Truthy() {
				s.Music.Call("pause")
			}
		}
		return
	}

	if s.musicStop == nil {
		s.musicStop = make(chan struct{})
		go s.musicLoop(s.musicStop, "/web/sounds/felt_table.mp3")
	}
}

func (s *GlobalClientState) musicLoop(stop chan struct{}, src string) {
	klog.Infof("musicLoop: Started")
	for {
		if s.Music == nil || !s.Music.Truthy() {
			klog.Infof("musicLoop: Creating audio element")
			s.Music = app.Window().Get("document").Call("createElement", "audio")
			s.Music.Get("style").Set("display", "none")
			app.Window().Get("document").Get("body").Call("appendChild", s.Music)
		}
		s.Music.Set("src", src)
		s.Music.Set("loop", true)
		s.Music.Set("volume", 0.04)

		played := make(chan bool, 1)
		promise := s.Music.Call("play")
		if promise.Truthy() {
			var onSuccess, onFailure app.Func
			onSuccess = app.FuncOf(func(this app.Value, args []app.Value) any {
				klog.Infof("musicLoop: Play started successfully")
				select {
				case played <- true:
				default:
				}
				onSuccess.Release()
				onFailure.Release()
				return nil
			})
			onFailure = app.FuncOf(func(this app.Value, args []app.Value) any {
				klog.Errorf("musicLoop: Play failed (likely autoplay block): %v", args[0])
				select {
				case played <- false:
				default:
				}
				onSuccess.Release()
				onFailure.Release()
				return nil
			})
			promise.Call("then", onSuccess)
			promise.Call("catch", onFailure)
		} else {
			klog.Warning("musicLoop: Play did not return a promise")
			played <- true
		}

		var ok bool
		select {
		case <-stop:
			return
		case ok = <-played:
		case <-time.After(5 * time.Second):
			klog.Warning("musicLoop: Play promise timed out")
			ok = false
		}

		if ok {
			// The loop attribute keeps the track going; nothing left to do
			// until the player turns the sound off.
			<-stop
			return
		}

		// Autoplay was blocked. Retry once the player had a chance to
		// interact with the page.
		klog.Infof("musicLoop: Retrying in 5 seconds...")
		select {
		case <-stop:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// BoardCleared reports whether every playfield card was matched away. The
// waste pile sits at the active slot, so any revealed card anywhere else
// is still in play.
func (s *GlobalClientState) BoardCleared() bool {
	if len(s.Cards) == 0 {
		return false
	}
	for _, c := range s.Cards {
		if c.State == game.StateRevealed && c.Pos != game.ActivePos {
			return false
		}
	}
	return true
}

func (s *GlobalClientState) Notify() {
	klog.Infof("GlobalClientState: Notifying %d listeners", len(s.Listeners))
	for _, l := range s.Listeners {
		if l != nil {
			l()
		}
	}
}

// ConnectWS connects to the server and joins a session. An empty
// sessionID asks the server to create a fresh session for the level.
func (s *GlobalClientState) ConnectWS(sessionID string, levelID int) error {
	if s.Conn != nil {
		klog.Infof("ConnectWS: Closing existing connection")
		s.Conn.CloseNow()
		s.Conn = nil
	}

	wsURL := fmt.Sprintf("ws://%s/ws", app.Window().URL().Host)
	klog.Infof("ConnectWS: Connecting to %s (session %q, level %d)", wsURL, sessionID, levelID)

	// We use a context that lasts for the duration of the connection setup.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		klog.Errorf("ConnectWS: Dial failed: %v", err)
		return fmt.Errorf("dial failed: %w", err)
	}

	s.Conn = conn
	s.LevelID = levelID
	klog.Infof("ConnectWS: Connected, sending Join message...")

	joinMsg, err := game.NewWsMessage(game.MsgTypeJoin, game.JoinMessage{
		SessionID: sessionID,
		LevelID:   levelID,
	})
	if err != nil {
		klog.Errorf("ConnectWS: Failed to create join message: %v", err)
		return fmt.Errorf("failed to create join message: %w", err)
	}

	if err := wsjson.Write(ctx, conn, joinMsg); err != nil {
		klog.Errorf("ConnectWS: Failed to send join: %v", err)
		return fmt.Errorf("failed to send join: %w", err)
	}

	klog.Infof("ConnectWS: Join message sent. Starting read loop.")
	// Start reading loop in background
	go s.readLoop(conn)

	return nil
}

func (s *GlobalClientState) readLoop(conn *websocket.Conn) {
	ctx := context.Background()
	klog.Infof("readLoop: started")
	for {
		var msg game.WsMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			klog.Errorf("readLoop: WS read error: %v", err)
			break
		}

		klog.Infof("readLoop: received message type: %s", msg.Type)
		s.handleMessage(msg)
	}
}

func (s *GlobalClientState) handleMessage(msg game.WsMessage) {
	switch msg.Type {
	case game.MsgTypeState:
		p, err := msg.Parse()
		if err != nil {
			klog.Errorf("handleMessage: Failed to parse state message: %v", err)
			return
		}
		stateMsg, ok := p.(*game.StateMessage)
		if !ok {
			klog.Errorf("handleMessage: Expected StateMessage, got: %T", p)
			return
		}

		klog.Infof("handleMessage: State received. Session %s, level %d, %d cards",
			stateMsg.SessionID, stateMsg.LevelID, len(stateMsg.Cards))
		s.SessionID = stateMsg.SessionID
		s.LevelID = stateMsg.LevelID
		s.Cards = make(map[int]game.Snapshot, len(stateMsg.Cards))
		for _, c := range stateMsg.Cards {
			s.Cards[c.ID] = c
		}
		s.ActiveID = stateMsg.ActiveID
		s.CanUndo = stateMsg.CanUndo
		s.Error = ""

		// Remember the session so the level can be resumed later.
		setCookie(sessionCookieName(stateMsg.LevelID), stateMsg.SessionID, 30)
		s.SyncMusic()
		s.Notify()

	case game.MsgTypeUpdate:
		p, err := msg.Parse()
		if err != nil {
			klog.Errorf("handleMessage: Failed to parse update message: %v", err)
			return
		}
		updateMsg, ok := p.(*game.UpdateMessage)
		if !ok {
			return
		}

		klog.Infof("handleMessage: Update received. Kind: %s, accepted: %t, cards: %d, active: %d",
			updateMsg.Kind, updateMsg.Accepted, len(updateMsg.Cards), updateMsg.ActiveID)
		for _, c := range updateMsg.Cards {
			s.Cards[c.ID] = c
		}
		s.ActiveID = updateMsg.ActiveID
		s.CanUndo = updateMsg.CanUndo

		if updateMsg.Accepted {
			switch updateMsg.Kind {
			case game.MsgTypeMove:
				if s.BoardCleared() {
					s.PlaySound("/web/sounds/win.mp3")
				} else {
					s.PlaySound("/web/sounds/card_place.mp3")
				}
			case game.MsgTypeDraw, game.MsgTypeUndo:
				s.PlaySound("/web/sounds/card_flip.mp3")
			}
		} else {
			s.RejectSeq++
			s.PlaySound("/web/sounds/reject.mp3")
		}
		s.Notify()

	case game.MsgTypeError:
		p, err := msg.Parse()
		if err != nil {
			klog.Errorf("handleMessage: Failed to parse error message: %v", err)
			return
		}
		errMsg, ok := p.(*game.ErrorMessage)
		if !ok {
			klog.Errorf("handleMessage: Expected ErrorMessage, got: %T", p)
			return
		}

		klog.Errorf("handleMessage: Server error: %s", errMsg.Message)
		s.Error = errMsg.Message
		s.Notify()
	}
}

// SendMove asks the server to match a revealed card with the active card.
func (s *GlobalClientState) SendMove(cardID int) {
	if s.Conn == nil {
		return
	}
	msg, err := game.NewWsMessage(game.MsgTypeMove, game.MoveMessage{CardID: cardID})
	if err != nil {
		klog.Errorf("SendMove: Failed to create move message: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	wsjson.Write(ctx, s.Conn, msg)
}

// SendDraw asks the server to reveal a face-down stock card.
func (s *GlobalClientState) SendDraw(cardID int) {
	if s.Conn == nil {
		return
	}
	msg, err := game.NewWsMessage(game.MsgTypeDraw, game.DrawMessage{CardID: cardID})
	if err != nil {
		klog.Errorf("SendDraw: Failed to create draw message: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	wsjson.Write(ctx, s.Conn, msg)
}

// SendUndo asks the server to reverse the last accepted action.
func (s *GlobalClientState) SendUndo() {
	if s.Conn == nil {
		return
	}
	msg, err := game.NewWsMessage(game.MsgTypeUndo, nil)
	if err != nil {
		klog.Errorf("SendUndo: Failed to create undo message: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	wsjson.Write(ctx, s.Conn, msg)
}

// SendRestart asks the server to rebuild the session from its level.
func (s *GlobalClientState) SendRestart() {
	if s.Conn == nil {
		return
	}
	msg, err := game.NewWsMessage(game.MsgTypeRestart, nil)
	if err != nil {
		klog.Errorf("SendRestart: Failed to create restart message: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	wsjson.Write(ctx, s.Conn, msg)
}
