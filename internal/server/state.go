package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/janpfeifer/GoPeaks/internal/game"
	"github.com/janpfeifer/GoPeaks/internal/levels"
	"k8s.io/klog/v2"
)

// writeTimeout bounds every websocket write. Reads block until the player
// does something.
const writeTimeout = 2 * time.Second

// ServerState holds every live session. The mutex guards the session map;
// each session serializes its own game.
type ServerState struct {
	mu       sync.RWMutex
	Address  string // Address the server listens on, filled in by Run.
	Sessions map[string]*LiveSession
	catalog  *levels.Catalog
}

func NewServerState(catalog *levels.Catalog) *ServerState {
	return &ServerState{
		Sessions: make(map[string]*LiveSession),
		catalog:  catalog,
	}
}

// LiveSession is one running game plus the sockets watching it. The mutex
// serializes every intent against the game and guards the subscriber set,
// so each intent commits and broadcasts atomically.
type LiveSession struct {
	mu      sync.Mutex
	ID      string
	LevelID int
	Game    *game.Session
	conns   map[*websocket.Conn]struct{}
}

// joinSession returns the session with the given id, or creates one from
// the requested level. An empty id always creates, under a fresh uuid;
// an unknown id recreates the session under the client's id, which keeps
// rejoining clients working across a server restart.
func (s *ServerState) joinSession(sessionID string, levelID int) (*LiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID != "" {
		if ls, ok := s.Sessions[sessionID]; ok {
			return ls, nil
		}
	}

	layout, err := s.catalog.Layout(levelID)
	if err != nil {
		return nil, err
	}
	g, err := game.NewSession(layout)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ls := &LiveSession{
		ID:      sessionID,
		LevelID: levelID,
		Game:    g,
		conns:   make(map[*websocket.Conn]struct{}),
	}
	s.Sessions[sessionID] = ls
	klog.Infof("Session %s created for level %d", sessionID, levelID)
	return ls, nil
}

// HandleWS upgrades the connection and runs one subscriber's intent loop.
// The first message must be a join; everything after that is intents.
func (s *ServerState) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		klog.Errorf("Failed to accept websocket: %v", err)
		return
	}
	defer conn.CloseNow()
	ctx := r.Context()

	var msg game.WsMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		klog.V(1).Infof("Websocket closed before joining: %v", err)
		return
	}
	payload, err := msg.Parse()
	if err != nil {
		sendError(ctx, conn, err.Error())
		return
	}
	join, ok := payload.(*game.JoinMessage)
	if !ok {
		sendError(ctx, conn, fmt.Sprintf("expected a join message, got %s", msg.Type))
		return
	}

	ls, err := s.joinSession(join.SessionID, join.LevelID)
	if err != nil {
		klog.Errorf("Join for level %d failed: %v", join.LevelID, err)
		sendError(ctx, conn, err.Error())
		return
	}
	ls.attach(conn)
	defer ls.detach(conn)
	klog.V(1).Infof("Session %s: subscriber joined", ls.ID)

	// The joining subscriber gets the full authoritative state up front.
	// Updates that race this snapshot are safe to reapply: they carry
	// absolute card snapshots, not deltas.
	ls.mu.Lock()
	state, err := ls.stateMessage()
	ls.mu.Unlock()
	if err != nil {
		klog.Errorf("Session %s: failed to build state message: %v", ls.ID, err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	err = wsjson.Write(writeCtx, conn, state)
	cancel()
	if err != nil {
		return
	}

	for {
		var msg game.WsMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			klog.V(1).Infof("Session %s: subscriber left: %v", ls.ID, err)
			return
		}
		payload, err := msg.Parse()
		if err != nil {
			sendError(ctx, conn, err.Error())
			continue
		}
		switch p := payload.(type) {
		case *game.MoveMessage:
			ls.handleMove(ctx, conn, p.CardID)
		case *game.DrawMessage:
			ls.handleDraw(ctx, conn, p.CardID)
		case *game.UndoMessage:
			ls.handleUndo(ctx, conn)
		case *game.RestartMessage:
			ls.handleRestart()
		case *game.JoinMessage:
			sendError(ctx, conn, "already joined")
		default:
			sendError(ctx, conn, fmt.Sprintf("unexpected message type %s", msg.Type))
		}
	}
}

// HandleLevels serves the level listing for the level select screen.
func (s *ServerState) HandleLevels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(s.catalog.List()); err != nil {
		klog.Errorf("Failed to write level list: %v", err)
	}
}

func (ls *LiveSession) attach(conn *websocket.Conn) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.conns[conn] = struct{}{}
}

func (ls *LiveSession) detach(conn *websocket.Conn) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	delete(ls.conns, conn)
}

func (ls *LiveSession) handleMove(ctx context.Context, conn *websocket.Conn, cardID int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	res, err := ls.Game.MakeMove(cardID)
	if err != nil {
		sendError(ctx, conn, err.Error())
		return
	}
	if res.Accepted {
		ls.broadcastUpdate(game.MsgTypeMove, true, res.Card)
	} else {
		ls.broadcastUpdate(game.MsgTypeMove, false)
	}
}

func (ls *LiveSession) handleDraw(ctx context.Context, conn *websocket.Conn, cardID int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	res, err := ls.Game.DrawFromWaste(cardID)
	if err != nil {
		sendError(ctx, conn, err.Error())
		return
	}
	if res.Accepted {
		ls.broadcastUpdate(game.MsgTypeDraw, true, res.Card)
	} else {
		ls.broadcastUpdate(game.MsgTypeDraw, false)
	}
}

func (ls *LiveSession) handleUndo(ctx context.Context, conn *websocket.Conn) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	res, err := ls.Game.Undo()
	switch {
	case errors.Is(err, game.ErrNothingToUndo):
		ls.broadcastUpdate(game.MsgTypeUndo, false)
	case err != nil:
		// The history referenced a card that no longer exists. Report it
		// and resync everyone from the authoritative state.
		sendError(ctx, conn, err.Error())
		ls.broadcastState()
	default:
		ls.broadcastUpdate(game.MsgTypeUndo, true, res.Card)
	}
}

func (ls *LiveSession) handleRestart() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.Game.Reset()
	klog.Infof("Session %s: restarted", ls.ID)
	ls.broadcastState()
}

// stateMessage builds the full state message. Callers hold ls.mu.
func (ls *LiveSession) stateMessage() (game.WsMessage, error) {
	return game.NewWsMessage(game.MsgTypeState, game.StateMessage{
		SessionID: ls.ID,
		LevelID:   ls.LevelID,
		Cards:     ls.Game.Cards(),
		ActiveID:  ls.Game.ActiveID(),
		CanUndo:   ls.Game.CanUndo(),
	})
}

// broadcastUpdate sends one intent outcome to every subscriber. Callers
// hold ls.mu.
func (ls *LiveSession) broadcastUpdate(kind game.MessageType, accepted bool, cards ...game.Snapshot) {
	msg, err := game.NewWsMessage(game.MsgTypeUpdate, game.UpdateMessage{
		Kind:     kind,
		Accepted: accepted,
		Cards:    cards,
		ActiveID: ls.Game.ActiveID(),
		CanUndo:  ls.Game.CanUndo(),
	})
	if err != nil {
		klog.Errorf("Session %s: failed to build update message: %v", ls.ID, err)
		return
	}
	ls.broadcast(msg)
}

// broadcastState resyncs every subscriber. Callers hold ls.mu.
func (ls *LiveSession) broadcastState() {
	msg, err := ls.stateMessage()
	if err != nil {
		klog.Errorf("Session %s: failed to build state message: %v", ls.ID, err)
		return
	}
	ls.broadcast(msg)
}

// broadcast writes msg to every subscriber, dropping the ones that fail.
// Callers hold ls.mu.
func (ls *LiveSession) broadcast(msg game.WsMessage) {
	for conn := range ls.conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := wsjson.Write(ctx, conn, msg)
		cancel()
		if err != nil {
			klog.V(1).Infof("Session %s: dropping subscriber: %v", ls.ID, err)
			delete(ls.conns, conn)
			conn.CloseNow()
		}
	}
}

// sendError reports a failure to a single subscriber.
func sendError(ctx context.Context, conn *websocket.Conn, text string) {
	msg, err := game.NewWsMessage(game.MsgTypeError, game.ErrorMessage{Message: text})
	if err != nil {
		klog.Errorf("Failed to build error message: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, msg); err != nil {
		klog.V(1).Infof("Failed to send error message: %v", err)
	}
}
