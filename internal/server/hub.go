// Package server exposes matches over websockets. Clients create or
// join a match, receive JSON snapshots pushed after every accepted move
// and submit plays through the same move API the AI uses — the hub adds
// no rules of its own.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gwentfree/gwent-server-go/internal/config"
	"github.com/gwentfree/gwent-server-go/internal/game"
	"github.com/gwentfree/gwent-server-go/internal/rules"
	"github.com/gwentfree/gwent-server-go/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the deployment proxy.
		return true
	},
}

// Hub tracks connected clients and routes their messages to the
// session manager.
type Hub struct {
	logger  *zap.Logger
	mgr     *session.Manager
	gameCfg config.GameConfig
	collab  game.Collaborators // template; Notifier is filled per match

	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a hub over the given session manager. collab carries
// the shared collaborators (effect resolver, action log); the hub adds
// its own state notifier per match.
func NewHub(logger *zap.Logger, mgr *session.Manager, gameCfg config.GameConfig, collab game.Collaborators) *Hub {
	return &Hub{
		logger:     logger,
		mgr:        mgr,
		gameCfg:    gameCfg,
		collab:     collab,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run processes client registration until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return ctx.Err()

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client disconnected",
				zap.String("participant", client.participant))
		}
	}
}

// ServeWS upgrades an HTTP request to a websocket client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Hub) handleMessage(c *Client, msg Message) {
	switch msg.Type {
	case "create_match":
		h.handleCreate(c, msg)
	case "join_match":
		h.handleJoin(c, msg)
	case "play_card":
		lane, err := parseLane(msg.Lane)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		h.submit(c, h.mgr.PlayCard(c.matchID, game.ParticipantID(c.participant), msg.InstanceID, lane))
	case "pass":
		h.submit(c, h.mgr.Pass(c.matchID, game.ParticipantID(c.participant)))
	case "use_leader":
		h.submit(c, h.mgr.UseLeader(c.matchID, game.ParticipantID(c.participant)))
	case "remaining":
		d, err := h.mgr.Remaining(c.matchID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sendJSON(Outbound{Type: "remaining", Data: remainingPayload{
			MatchID:   c.matchID,
			Remaining: d.Seconds(),
		}})
	default:
		c.sendError("unknown message type " + msg.Type)
	}
}

func (h *Hub) handleCreate(c *Client, msg Message) {
	if msg.Participant == "" {
		c.sendError("participant required")
		return
	}

	a := game.ParticipantSpec{ID: game.ParticipantID(msg.Participant), Name: msg.Name}
	if a.Name == "" {
		a.Name = msg.Participant
	}

	var b game.ParticipantSpec
	if msg.VsAI {
		b = game.ParticipantSpec{
			ID:           game.ParticipantID("ai-" + uuid.NewString()),
			Name:         "Opponent",
			AIControlled: true,
		}
	} else {
		if msg.Opponent == "" {
			c.sendError("opponent required unless vs_ai")
			return
		}
		b = game.ParticipantSpec{ID: game.ParticipantID(msg.Opponent), Name: msg.Opponent}
	}

	cfg := h.gameCfg.MatchConfig(msg.Stake)
	collab := h.collab
	if base := collab.Notifier; base != nil {
		collab.Notifier = notifierFunc(func(snap game.Snapshot) {
			base.Notify(snap)
			h.broadcastState(snap)
		})
	} else {
		collab.Notifier = notifierFunc(h.broadcastState)
	}

	m, err := h.mgr.CreateMatch(context.Background(), cfg, a, b, collab)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	c.participant = msg.Participant
	c.matchID = m.ID()
	m.Events().Subscribe(h.forwardEvent)

	c.sendJSON(Outbound{Type: "match_state", Data: newStatePayload(m.Snapshot())})
}

func (h *Hub) handleJoin(c *Client, msg Message) {
	m, ok := h.mgr.Match(msg.MatchID)
	if !ok {
		c.sendError("unknown match " + msg.MatchID)
		return
	}
	c.matchID = msg.MatchID
	c.participant = msg.Participant
	c.sendJSON(Outbound{Type: "match_state", Data: newStatePayload(m.Snapshot())})
}

// submit reports a move result: errors go back to the caller only, the
// resulting state reaches everyone via the notification sink.
func (h *Hub) submit(c *Client, err error) {
	if err != nil {
		c.sendError(err.Error())
	}
}

// broadcastState pushes a snapshot to every client in the match.
func (h *Hub) broadcastState(snap game.Snapshot) {
	raw, err := json.Marshal(Outbound{Type: "match_state", Data: newStatePayload(snap)})
	if err != nil {
		h.logger.Error("marshal snapshot", zap.Error(err))
		return
	}
	h.broadcast(snap.MatchID, raw)
}

// forwardEvent pushes an engine event to every client in the match.
func (h *Hub) forwardEvent(ev rules.Event) {
	raw, err := json.Marshal(Outbound{Type: "event", Data: newEventPayload(ev)})
	if err != nil {
		return
	}
	h.broadcast(ev.MatchID, raw)
}

func (h *Hub) broadcast(matchID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.matchID != matchID {
			continue
		}
		if !client.push(payload) {
			h.logger.Warn("client send buffer full, dropping message",
				zap.String("participant", client.participant))
		}
	}
}

// notifierFunc adapts a function to the StateNotificationSink contract.
type notifierFunc func(game.Snapshot)

func (f notifierFunc) Notify(snap game.Snapshot) { f(snap) }
