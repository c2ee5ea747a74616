package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pickten/pickten/internal/game"
)

// GameApp is the engine surface the gateway drives on behalf of
// connected clients.
type GameApp interface {
	Join(ctx context.Context, username string) (*game.JoinResult, error)
	Pick(ctx context.Context, username string, number int) (*game.PickResult, error)
	CurrentSession(ctx context.Context) (*game.SessionSnapshot, error)
	Tick(ctx context.Context) error
	CloseAndRollover(ctx context.Context, sessionID uuid.UUID) error
}

// ConnectionManager manages WebSocket connections for game events.
// There is a single shared room: every connection receives every
// broadcast.
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	app      GameApp

	broadcastCh chan BroadcastMessage

	// Base context for command dispatch, set when Start runs.
	baseCtx context.Context
}

// Connection represents a WebSocket connection to a client.
type Connection struct {
	ID       string
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	Manager  *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time

	// Guards Send against a send racing the close in
	// unregisterConnection.
	mu     sync.Mutex
	closed bool
}

// trySend queues a message for the write pump. It reports false when
// the buffer is full or the connection has been unregistered; it never
// sends on a closed channel.
func (c *Connection) trySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	CommandTimeout  time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage represents a message to fan out to connections.
// Winners carries the usernames that won when the event is a session
// result, so each connection can be told whether it won.
type BroadcastMessage struct {
	Event   *GameEvent
	Winners []string
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		CommandTimeout:  10 * time.Second,
		MaxMessageSize:  1024, // 1KB max message size
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig, app GameApp) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		app:         app,
		broadcastCh: make(chan BroadcastMessage, 1000), // Buffer for high throughput
		baseCtx:     context.Background(),
	}
}

// Start begins processing broadcast messages.
func (cm *ConnectionManager) Start(ctx context.Context) {
	cm.baseCtx = ctx
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and greets
// the client with the current session snapshot.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, username string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Username:    username,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	connection.sendSessionInfo()

	log.Info().
		Str("connection_id", connection.ID).
		Str("username", username).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)

		conn.mu.Lock()
		conn.closed = true
		conn.mu.Unlock()
		close(conn.Send)

		log.Info().
			Str("connection_id", conn.ID).
			Str("username", conn.Username).
			Msg("connection unregistered")
	}
}

// Broadcast queues an event for fan-out to every connection.
func (cm *ConnectionManager) Broadcast(event *GameEvent, winners []string) {
	select {
	case cm.broadcastCh <- BroadcastMessage{Event: event, Winners: winners}:
	default:
		log.Warn().Str("event_type", string(event.Type)).Msg("broadcast channel full, dropping message")
	}
}

// handleBroadcast fans one event out to all connections. For session
// results the payload is personalized so each client sees whether it
// won; only two variants exist, so both are marshaled once.
func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	targetConnections := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targetConnections = append(targetConnections, conn)
	}
	cm.mu.RUnlock()

	if len(targetConnections) == 0 {
		return
	}

	eventData, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	var winnerData []byte
	if message.Event.Type == EventTypeSessionEnded {
		loser, winner, err := personalizeResult(message.Event)
		if err != nil {
			log.Error().Err(err).Msg("failed to personalize session result")
		} else {
			eventData = loser
			winnerData = winner
		}
	}

	winners := make(map[string]bool, len(message.Winners))
	for _, w := range message.Winners {
		winners[w] = true
	}

	for _, conn := range targetConnections {
		data := eventData
		if winnerData != nil && winners[conn.Username] {
			data = winnerData
		}
		if !conn.trySend(data) {
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Str("username", conn.Username).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Int("connections", len(targetConnections)).
		Msg("event broadcasted")
}

// personalizeResult returns the session result envelope marshaled twice:
// once with is_winner false and once with it true.
func personalizeResult(event *GameEvent) (loser, winner []byte, err error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return nil, nil, fmt.Errorf("unmarshal result payload: %w", err)
	}

	marshal := func(won bool) ([]byte, error) {
		payload["is_winner"] = won
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		personalized := *event
		personalized.Data = data
		return json.Marshal(&personalized)
	}

	if loser, err = marshal(false); err != nil {
		return nil, nil, err
	}
	if winner, err = marshal(true); err != nil {
		return nil, nil, err
	}
	return loser, winner, nil
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	usernames := make(map[string]int)
	for conn := range cm.connections {
		usernames[conn.Username]++
	}

	return map[string]interface{}{
		"total_connections": len(cm.connections),
		"unique_users":      len(usernames),
	}
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection.
// Commands are dispatched inline so one client's commands apply in the
// order they arrived.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage parses and dispatches one client command.
func (c *Connection) handleClientMessage(message []byte) {
	cmd, err := ParseClientCommand(message)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Manager.baseCtx, c.Manager.config.CommandTimeout)
	defer cancel()

	switch cmd.Type {
	case CommandJoinSession:
		c.handleJoin(ctx)
	case CommandPickNumber:
		c.handlePick(ctx, *cmd.Number)
	case CommandLeaveSession:
		// Participation is kept; leaving only stops this client's feed.
		c.sendReply(EventTypeInfo, map[string]interface{}{"message": "left session"})
		c.Conn.Close()
	case CommandTriggerTick:
		if err := c.Manager.app.Tick(ctx); err != nil {
			c.sendError(fmt.Sprintf("tick failed: %v", err))
			return
		}
		c.sendReply(EventTypeInfo, map[string]interface{}{"message": "tick applied"})
	case CommandTriggerClose:
		c.handleTriggerClose(cmd.SessionID)
	}
}

func (c *Connection) handleJoin(ctx context.Context) {
	result, err := c.Manager.app.Join(ctx, c.Username)
	if err != nil {
		if errors.Is(err, game.ErrNoActiveSession) {
			c.sendError("no active session")
			return
		}
		log.Error().Err(err).Str("username", c.Username).Msg("join failed")
		c.sendError("join failed")
		return
	}

	c.sendReply(EventTypeJoinAck, map[string]interface{}{
		"player_count":   result.PlayerCount,
		"already_joined": result.AlreadyJoined,
	})
}

func (c *Connection) handlePick(ctx context.Context, number int) {
	result, err := c.Manager.app.Pick(ctx, c.Username, number)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrInvalidNumber):
			c.sendError("number must be between 1 and 10")
		case errors.Is(err, game.ErrNoActiveSession):
			c.sendError("no active session")
		default:
			log.Error().Err(err).Str("username", c.Username).Msg("pick failed")
			c.sendError("pick failed")
		}
		return
	}

	payload := map[string]interface{}{
		"applied":         result.Applied,
		"selected_number": result.SelectedNumber,
	}
	if !result.Applied {
		// The session settled before the pick landed; report the outcome.
		payload["winning_number"] = result.WinningNumber
		payload["winners"] = result.Winners
		payload["is_winner"] = result.IsWinner
	}
	c.sendReply(EventTypeNumberSelected, payload)
}

// handleTriggerClose runs in its own goroutine because a close includes
// the inter-session pause and must not stall this connection's reads.
func (c *Connection) handleTriggerClose(sessionID string) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		c.sendError("invalid session_id")
		return
	}

	go func() {
		if err := c.Manager.app.CloseAndRollover(c.Manager.baseCtx, id); err != nil {
			if errors.Is(err, game.ErrAlreadySettled) {
				c.sendReply(EventTypeInfo, map[string]interface{}{"message": "session already settled"})
				return
			}
			log.Error().Err(err).Str("session_id", sessionID).Msg("manual close failed")
			c.sendError("close failed")
			return
		}
	}()

	c.sendReply(EventTypeInfo, map[string]interface{}{"message": "close triggered"})
}

// sendSessionInfo pushes the current session snapshot to a freshly
// connected client.
func (c *Connection) sendSessionInfo() {
	ctx, cancel := context.WithTimeout(c.Manager.baseCtx, c.Manager.config.CommandTimeout)
	defer cancel()

	snapshot, err := c.Manager.app.CurrentSession(ctx)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to load session snapshot")
		return
	}

	payload := map[string]interface{}{"active": snapshot != nil && snapshot.IsActive}
	if snapshot != nil {
		payload["session_id"] = snapshot.SessionID
		payload["time_left"] = snapshot.TimeRemaining
		payload["player_count"] = snapshot.PlayerCount
	}
	c.sendReply(EventTypeSessionInfo, payload)
}

func (c *Connection) sendReply(eventType EventType, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal reply payload")
		return
	}
	event := &GameEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	message, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal reply")
		return
	}

	if !c.trySend(message) {
		log.Warn().Str("connection_id", c.ID).Msg("send buffer full, dropping reply")
	}
}

func (c *Connection) sendError(message string) {
	c.sendReply(EventTypeError, map[string]interface{}{"message": message})
}
