package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"genshin-bingo/internal/auth"
	"genshin-bingo/internal/broadcast"
	"genshin-bingo/internal/coordinator"
	"genshin-bingo/internal/presence"
)

const writeWait = 10 * time.Second

type Client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	name     string
	tracked  bool
	typing   bool
}

// Server is the presence channel: clients track themselves, see who else is
// around and receive the game event stream.
type Server struct {
	coord     *coordinator.Coordinator
	issuer    *auth.Issuer
	snapshots *presence.Snapshots
	schema    *jsonschema.Schema
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]bool
	now     func() time.Time
}

func NewServer(coord *coordinator.Coordinator, issuer *auth.Issuer, snapshots *presence.Snapshots) *Server {
	schema, err := compileSchema()
	if err != nil {
		// embedded at build time; only a broken build gets here.
		panic(err)
	}
	return &Server{
		coord:     coord,
		issuer:    issuer,
		snapshots: snapshots,
		schema:    schema,
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   map[*Client]bool{},
		now:       time.Now,
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	claims, err := s.issuer.Parse(auth.BearerToken(r))
	if err != nil {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
		return
	}
	p, err := s.coord.Engine().Player(r.Context(), claims.Subject)
	if err != nil {
		http.Error(w, `{"error":"player_not_found"}`, http.StatusUnauthorized)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, 16),
		playerID: p.ID,
		name:     p.Name,
	}
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()
	log.Debug().Str("player_id", p.ID).Str("conn_id", client.id).Msg("presence connected")

	events := s.coord.Bridge().Buffer().Subscribe()
	go s.writeLoop(client)
	go s.forwardLoop(client, events)
	s.sendSync(client)
	s.readLoop(client, events)
}

func (s *Server) readLoop(c *Client, events chan broadcast.Event) {
	defer func() {
		s.coord.Bridge().Buffer().Unsubscribe(events)
		s.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(c, raw)
	}
}

func (s *Server) handleMessage(c *Client, raw []byte) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		s.sendError(c, "invalid_message")
		return
	}
	if err := s.schema.Validate(v); err != nil {
		s.sendError(c, "invalid_message")
		return
	}
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError(c, "invalid_message")
		return
	}
	ctx := context.Background()
	switch msg.Type {
	case TypeTrack:
		s.track(ctx, c, msg.Typing)
	case TypeUntrack:
		s.untrack(ctx, c)
	case TypeTyping:
		s.mu.Lock()
		changed := c.tracked && c.typing != msg.Typing
		c.typing = msg.Typing
		s.mu.Unlock()
		if changed {
			s.syncAll(ctx)
		}
	case TypeHeartbeat:
		if err := s.coord.Heartbeat(ctx, c.playerID); err != nil {
			log.Warn().Err(err).Str("player_id", c.playerID).Msg("heartbeat failed")
		}
	}
}

func (s *Server) track(ctx context.Context, c *Client, typing bool) {
	s.mu.Lock()
	joined := !s.memberLocked(c.playerID)
	c.tracked = true
	c.typing = typing
	s.mu.Unlock()

	if err := s.coord.Heartbeat(ctx, c.playerID); err != nil {
		log.Warn().Err(err).Str("player_id", c.playerID).Msg("heartbeat failed")
	}
	if joined {
		s.broadcastMsg(PresenceJoin{Type: TypePresenceJoin, Member: s.member(c.playerID)})
	}
	s.syncAll(ctx)
}

func (s *Server) untrack(ctx context.Context, c *Client) {
	s.mu.Lock()
	if !c.tracked {
		s.mu.Unlock()
		return
	}
	c.tracked = false
	c.typing = false
	left := !s.memberLocked(c.playerID)
	s.mu.Unlock()

	if left {
		if err := s.coord.Tracker().Forget(ctx, c.playerID); err != nil {
			log.Warn().Err(err).Str("player_id", c.playerID).Msg("presence forget failed")
		}
		s.broadcastMsg(PresenceLeave{Type: TypePresenceLeave, PlayerID: c.playerID})
	}
	s.syncAll(ctx)
}

func (s *Server) memberLocked(playerID string) bool {
	for c := range s.clients {
		if c.tracked && c.playerID == playerID {
			return true
		}
	}
	return false
}

func (s *Server) member(playerID string) Member {
	for _, m := range s.Members() {
		if m.PlayerID == playerID {
			return m
		}
	}
	return Member{PlayerID: playerID, ConnIDs: []string{}}
}

// Members lists tracked players, sorted by player id.
func (s *Server) Members() []Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := map[string]*Member{}
	for c := range s.clients {
		if !c.tracked {
			continue
		}
		m := byID[c.playerID]
		if m == nil {
			m = &Member{PlayerID: c.playerID, Name: c.name}
			byID[c.playerID] = m
		}
		m.Typing = m.Typing || c.typing
		m.ConnIDs = append(m.ConnIDs, c.id)
	}
	out := make([]Member, 0, len(byID))
	for _, m := range byID {
		slices.Sort(m.ConnIDs)
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Member) int {
		switch {
		case a.PlayerID < b.PlayerID:
			return -1
		case a.PlayerID > b.PlayerID:
			return 1
		}
		return 0
	})
	return out
}

// syncAll pushes the member list to every client, refreshes liveness of the
// tracked players and records the online snapshot.
func (s *Server) syncAll(ctx context.Context) {
	members := s.Members()
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.PlayerID)
	}
	if err := s.coord.Heartbeat(ctx, ids...); err != nil {
		log.Warn().Err(err).Msg("presence heartbeat failed")
	}
	if _, err := s.snapshots.Report(ctx, ids, s.now()); err != nil && !errors.Is(err, presence.ErrStaleSnapshot) {
		log.Warn().Err(err).Msg("online snapshot write failed")
	}
	s.coord.Publish(ctx, broadcast.EventPresence, map[string]any{"player_ids": ids})
	s.broadcastMsg(PresenceSync{Type: TypePresenceSync, Members: members})
}

func (s *Server) sendSync(c *Client) {
	msg, _ := json.Marshal(PresenceSync{Type: TypePresenceSync, Members: s.Members()})
	safeSend(c.send, msg)
}

func (s *Server) sendError(c *Client, code string) {
	msg, _ := json.Marshal(ErrorMessage{Type: TypeError, Error: code})
	safeSend(c.send, msg)
}

func (s *Server) broadcastMsg(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		safeSend(c.send, msg)
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (s *Server) forwardLoop(c *Client, events chan broadcast.Event) {
	for ev := range events {
		if ev.Type == broadcast.EventPresence {
			continue
		}
		msg, err := json.Marshal(EventMessage{
			Type:     TypeEvent,
			EventID:  ev.ID,
			Event:    ev.Type,
			ServerTS: ev.ServerTS,
			Data:     ev.Data,
		})
		if err != nil {
			continue
		}
		safeSend(c.send, msg)
	}
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	wasTracked := c.tracked
	delete(s.clients, c)
	left := wasTracked && !s.memberLocked(c.playerID)
	s.mu.Unlock()
	safeClose(c.send)
	log.Debug().Str("player_id", c.playerID).Str("conn_id", c.id).Msg("presence disconnected")

	if !left {
		return
	}
	ctx := context.Background()
	if err := s.coord.Tracker().Forget(ctx, c.playerID); err != nil {
		log.Warn().Err(err).Str("player_id", c.playerID).Msg("presence forget failed")
	}
	s.broadcastMsg(PresenceLeave{Type: TypePresenceLeave, PlayerID: c.playerID})
	s.syncAll(ctx)
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

// safeSend drops the message when the client is closed or too slow.
func safeSend(ch chan []byte, msg []byte) {
	defer func() {
		_ = recover()
	}()
	select {
	case ch <- msg:
	default:
	}
}
