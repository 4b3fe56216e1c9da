package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/skywatch/metar-reader/internal/weather"
	"github.com/skywatch/metar-reader/pkg/logger"
)

// Message types for report streaming
const (
	MessageTypeWeatherUpdate = "weather_update" // Server pushes a fresh decoded report
	MessageTypeSubscribe     = "subscribe"      // Client selects which stations to receive
	MessageTypeStations      = "stations"       // Server answers with the tracked station list
)

// Message represents a WebSocket message
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Client represents a WebSocket client. A client with no subscriptions
// receives updates for every station.
type Client struct {
	conn          *websocket.Conn
	send          chan *Message
	server        *Server
	mu            sync.Mutex
	closed        bool
	closeChan     chan struct{}
	subscriptions map[string]bool
}

// Server represents a WebSocket server
type Server struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	upgrader   websocket.Upgrader
	logger     *logger.Logger
	stations   []string
	mu         sync.RWMutex
}

// NewServer creates a new WebSocket server. stations is the tracked
// station list reported to clients on request.
func NewServer(stations []string, logger *logger.Logger) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		logger:   logger.Named("web-socket"),
		stations: stations,
	}
}

// Run starts the WebSocket server loop. It returns when ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	s.logger.Info("Starting WebSocket server")

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return

		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client registered", logger.Int("client_count", clientCount))

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				// Mark client as closed first to prevent new messages
				client.mu.Lock()
				client.closed = true
				client.mu.Unlock()
				close(client.send)
			}
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client unregistered", logger.Int("client_count", clientCount))

		case message := <-s.broadcast:
			s.dispatch(message)
		}
	}
}

// dispatch fans a message out to every subscribed client
func (s *Server) dispatch(message *Message) {
	s.mu.RLock()
	clientsToRemove := make([]*Client, 0)
	for client := range s.clients {
		client.mu.Lock()
		if client.closed {
			clientsToRemove = append(clientsToRemove, client)
			client.mu.Unlock()
			continue
		}
		client.mu.Unlock()

		if !client.wantsMessage(message) {
			continue
		}

		select {
		case client.send <- message:
		default:
			// Channel is full, mark for removal
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	s.mu.RUnlock()

	if len(clientsToRemove) > 0 {
		s.mu.Lock()
		for _, client := range clientsToRemove {
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.mu.Lock()
				if !client.closed {
					client.closed = true
					close(client.send)
				}
				client.mu.Unlock()
			}
		}
		s.mu.Unlock()
	}
}

// closeAll shuts down every connected client
func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
}

// HandleConnection handles a WebSocket connection
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Handling new WebSocket connection request",
		logger.String("remote_addr", r.RemoteAddr),
		logger.String("user_agent", r.UserAgent()))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		conn:      conn,
		send:      make(chan *Message, 256),
		server:    s,
		closeChan: make(chan struct{}),
	}

	s.register <- client

	go client.readPump()
	go client.writePump()
}

// BroadcastReport sends a decoded report to all subscribed clients. It
// satisfies the weather service's Broadcaster interface.
func (s *Server) BroadcastReport(report *weather.Report) {
	s.Broadcast(&Message{
		Type: MessageTypeWeatherUpdate,
		Data: map[string]any{
			"station":         report.Station,
			"raw":             report.Raw,
			"decoded":         report.Decoded,
			"summary":         report.Summary,
			"flight_category": report.FlightCategory,
			"fetched_at":      report.FetchedAt,
		},
	})
}

// Broadcast sends a message to all connected clients
func (s *Server) Broadcast(message *Message) {
	s.logger.Debug("Broadcasting message to all clients",
		logger.String("message_type", message.Type))

	s.broadcast <- message
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		if !c.closed {
			c.closed = true
		}
		c.mu.Unlock()

		c.server.unregister <- c
		c.conn.Close()
	}()

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			break
		}
		c.mu.Unlock()

		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			break
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			c.server.logger.Error("Failed to parse WebSocket message", logger.Error(err))
			continue
		}

		c.server.logger.Debug("Received WebSocket message",
			logger.String("type", message.Type),
			logger.String("client", c.conn.RemoteAddr().String()))

		c.handleMessage(&message)
	}
}

// handleMessage processes a client request
func (c *Client) handleMessage(message *Message) {
	switch message.Type {
	case MessageTypeSubscribe:
		c.updateSubscriptions(message.Data)

	case MessageTypeStations:
		c.SendMessage(&Message{
			Type: MessageTypeStations,
			Data: map[string]any{"stations": c.server.stations},
		})

	default:
		c.server.logger.Debug("Ignoring unknown message type",
			logger.String("type", message.Type))
	}
}

// updateSubscriptions replaces the client's station subscription set. An
// empty or missing list subscribes to everything.
func (c *Client) updateSubscriptions(data map[string]any) {
	stations, _ := data["stations"].([]any)

	subs := make(map[string]bool, len(stations))
	for _, s := range stations {
		if code, ok := s.(string); ok && code != "" {
			subs[code] = true
		}
	}
	if len(subs) == 0 {
		subs = nil
	}

	c.mu.Lock()
	c.subscriptions = subs
	c.mu.Unlock()

	c.server.logger.Debug("Client subscriptions updated",
		logger.Int("station_count", len(subs)))
}

// wantsMessage checks whether the message passes the client's station
// subscription filter
func (c *Client) wantsMessage(message *Message) bool {
	if message.Type != MessageTypeWeatherUpdate {
		return true
	}

	c.mu.Lock()
	subs := c.subscriptions
	c.mu.Unlock()
	if subs == nil {
		return true
	}

	station, _ := message.Data["station"].(string)
	return subs[station]
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		c.mu.Lock()
		if !c.closed {
			c.closed = true
		}
		c.mu.Unlock()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.mu.Unlock()
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.server.logger.Error("Failed to marshal message", logger.Error(err))
				c.mu.Unlock()
				continue
			}

			c.server.logger.Debug("Sending message to client",
				logger.String("message_type", message.Type),
				logger.String("message_length", fmt.Sprintf("%d bytes", len(data))))

			w.Write(data)

			if err := w.Close(); err != nil {
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()

		case <-c.closeChan:
			return
		}
	}
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.closeChan)
	c.conn.Close()
}

// SendMessage sends a message to this specific client
func (c *Client) SendMessage(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		// Channel is full, drop message
		return false
	}
}
