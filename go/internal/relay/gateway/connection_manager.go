package gateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mcdev12/voterelay/go/internal/relay"
)

// Dispatcher receives transport callbacks. *relay.Loop implements it.
type Dispatcher interface {
	Opened(conn relay.Connection) error
	Inbound(conn relay.Connection, raw []byte) error
	Closed(conn relay.Connection) error
}

// ConnectionManager upgrades HTTP requests to WebSocket connections and
// feeds their traffic to the relay
type ConnectionManager struct {
	connections map[*Connection]struct{}
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	config     ConnectionConfig
	dispatcher Dispatcher
}

// Connection is a single WebSocket peer. It implements relay.Connection.
type Connection struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	manager *ConnectionManager

	ConnectedAt time.Time
	RemoteAddr  string
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	PingInterval      time.Duration
	MaxMessageSize    int64
	ReadBufferSize    int
	WriteBufferSize   int
	SendBufferSize    int
	MessagesPerSecond float64 // zero disables the inbound limit
	Burst             int
	CheckOrigin       func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:      10 * time.Second,
		ReadTimeout:       60 * time.Second,
		PingInterval:      30 * time.Second,
		MaxMessageSize:    64 * 1024,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		SendBufferSize:    256,
		MessagesPerSecond: 20,
		Burst:             40,
		CheckOrigin: func(r *http.Request) bool {
			// Game hosts and browser clients connect from arbitrary origins
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, dispatcher Dispatcher) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:     config,
		dispatcher: dispatcher,
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and starts its pumps
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	limit := rate.Inf
	if cm.config.MessagesPerSecond > 0 {
		limit = rate.Limit(cm.config.MessagesPerSecond)
	}

	connection := &Connection{
		id:          uuid.New().String(),
		conn:        conn,
		send:        make(chan []byte, cm.config.SendBufferSize),
		done:        make(chan struct{}),
		limiter:     rate.NewLimiter(limit, cm.config.Burst),
		manager:     cm,
		ConnectedAt: time.Now(),
		RemoteAddr:  r.RemoteAddr,
	}

	cm.registerConnection(connection)

	if err := cm.dispatcher.Opened(connection); err != nil {
		connection.close()
		conn.Close()
		return fmt.Errorf("relay rejected connection: %w", err)
	}

	go connection.writePump()
	go connection.readPump()

	return nil
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = struct{}{}

	log.Debug().
		Str("connection_id", conn.id).
		Str("remote_addr", conn.RemoteAddr).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		log.Debug().
			Str("connection_id", conn.id).
			Int("total_connections", len(cm.connections)).
			Msg("connection unregistered")
	}
}

// Count returns the number of open WebSocket connections
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll closes every open connection. Hijacked connections are not
// closed by http.Server.Shutdown.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for c := range cm.connections {
		conns = append(conns, c)
	}
	cm.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
	log.Info().Int("connections", len(conns)).Msg("closed all connections")
}

// ID implements relay.Connection
func (c *Connection) ID() string {
	return c.id
}

// Send queues payload for the write pump without blocking. A peer whose
// buffer is full is too slow to keep up and is disconnected.
func (c *Connection) Send(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- payload:
	case <-c.done:
	default:
		log.Warn().
			Str("connection_id", c.id).
			Msg("connection send buffer full, closing connection")
		c.close()
	}
}

// close marks the connection done. The write pump sends the close frame and
// releases the socket, which in turn ends the read pump.
func (c *Connection) close() {
	c.once.Do(func() {
		close(c.done)
		c.manager.unregisterConnection(c)
	})
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(c.manager.config.WriteTimeout))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump hands every inbound message to the relay until the peer goes away
func (c *Connection) readPump() {
	defer func() {
		if err := c.manager.dispatcher.Closed(c); err != nil {
			log.Debug().Err(err).Str("connection_id", c.id).Msg("close not delivered to relay")
		}
		c.close()
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected WebSocket close error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))

		if !c.limiter.Allow() {
			log.Warn().
				Str("connection_id", c.id).
				Msg("rate limit exceeded, dropping message")
			continue
		}

		if err := c.manager.dispatcher.Inbound(c, message); err != nil {
			log.Warn().Err(err).Str("connection_id", c.id).Msg("relay not accepting messages")
			return
		}
	}
}
