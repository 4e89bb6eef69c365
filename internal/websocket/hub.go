package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrClientDisconnected = errors.New("client disconnected")
	ErrUnknownConnection  = errors.New("unknown connection")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Presence is notified when a user's first connection arrives and when the
// last one goes away.
type Presence interface {
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
}

// Hub owns all live connections and the registry, and is the group-messaging
// substrate consumed by the chat service: AddToGroup, RemoveFromGroup,
// SendToGroup, SendToCaller.
type Hub struct {
	registry *Registry
	presence Presence

	mu    sync.RWMutex
	conns map[string]*Client

	register   chan *Client
	unregister chan *Client

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(presence Presence) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   NewRegistry(),
		presence:   presence,
		conns:      make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case <-h.ctx.Done():
			slog.Info("websocket hub shutting down")
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.conns[client.id] = client
	h.mu.Unlock()

	slog.Info("connection established", "clientID", client.id)
	if err := h.SendToCaller(client.id, EventConnectionEstablished, client.id); err != nil {
		slog.Debug("failed to ack connection", "clientID", client.id, "error", err)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, known := h.conns[client.id]
	delete(h.conns, client.id)
	h.mu.Unlock()
	if !known {
		return
	}

	userID, hadUser := h.registry.UserFor(client.id)
	h.registry.Unregister(client.id)
	client.close()

	slog.Info("connection closed", "clientID", client.id, "userID", userID)

	if hadUser && h.presence != nil && len(h.registry.ConnectionsForUser(userID)) == 0 {
		if err := h.presence.MarkOffline(h.ctx, userID); err != nil {
			slog.Error("failed to mark user offline", "userID", userID, "error", err)
		}
	}
}

// handleEvent dispatches a decoded client action. Runs on the client's read
// goroutine; registry operations are internally synchronized.
func (h *Hub) handleEvent(client *Client, event ClientEvent) {
	switch event.Action {
	case ActionRegister:
		h.registerUser(client, event.UserID)
	case ActionJoin:
		h.joinChat(client, event.ChatID)
	case ActionLeave:
		h.leaveChat(client, event.ChatID)
	default:
		slog.Warn("unknown client action", "clientID", client.id, "action", event.Action)
	}
}

func (h *Hub) registerUser(client *Client, userID string) {
	if userID == "" {
		slog.Warn("register without userId", "clientID", client.id)
		return
	}

	h.registry.RegisterUser(client.id, userID)
	slog.Info("user registered", "clientID", client.id, "userID", userID,
		"connections", len(h.registry.ConnectionsForUser(userID)))

	if h.presence != nil {
		if err := h.presence.MarkOnline(h.ctx, userID); err != nil {
			slog.Error("failed to mark user online", "userID", userID, "error", err)
		}
	}

	if err := h.SendToCaller(client.id, EventUserRegistered, userID); err != nil {
		slog.Debug("failed to ack registration", "clientID", client.id, "error", err)
	}
}

func (h *Hub) joinChat(client *Client, chatID string) {
	if chatID == "" {
		h.SendToCaller(client.id, EventJoinChatError, "chatId is required")
		return
	}

	h.AddToGroup(client.id, chatID)
	slog.Info("connection joined chat", "clientID", client.id, "chatID", chatID,
		"members", len(h.registry.ConnectionsForRoom(chatID)))

	if err := h.SendToCaller(client.id, EventJoinChatSuccess, chatID); err != nil {
		slog.Debug("failed to ack join", "clientID", client.id, "error", err)
	}
}

func (h *Hub) leaveChat(client *Client, chatID string) {
	if chatID == "" {
		h.SendToCaller(client.id, EventLeaveChatError, "chatId is required")
		return
	}

	h.RemoveFromGroup(client.id, chatID)
	slog.Info("connection left chat", "clientID", client.id, "chatID", chatID)

	if err := h.SendToCaller(client.id, EventLeaveChatSuccess, chatID); err != nil {
		slog.Debug("failed to ack leave", "clientID", client.id, "error", err)
	}
}

// AddToGroup subscribes a connection to a room's fan-out group.
func (h *Hub) AddToGroup(connID, roomID string) {
	h.registry.AddToRoom(connID, roomID)
}

// RemoveFromGroup removes a connection from a room's fan-out group.
func (h *Hub) RemoveFromGroup(connID, roomID string) {
	h.registry.RemoveFromRoom(connID, roomID)
}

// SendToGroup fans payload out to every connection currently in the room.
// Membership is snapshotted before any write so the registry lock is never
// held during I/O. Individual write failures are logged, never returned:
// delivery is best-effort.
func (h *Hub) SendToGroup(roomID, event string, payload interface{}) error {
	data, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}

	connIDs := h.registry.ConnectionsForRoom(roomID)
	delivered := 0
	for _, connID := range connIDs {
		h.mu.RLock()
		client, ok := h.conns[connID]
		h.mu.RUnlock()
		if !ok {
			continue
		}
		if err := client.enqueue(data); err != nil {
			slog.Debug("group send failed", "roomID", roomID, "clientID", connID, "error", err)
			continue
		}
		delivered++
	}

	slog.Debug("group send complete", "roomID", roomID, "event", event,
		"members", len(connIDs), "delivered", delivered)
	return nil
}

// SendToCaller delivers payload to one specific connection.
func (h *Hub) SendToCaller(connID, event string, payload interface{}) error {
	data, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	client, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownConnection
	}
	return client.enqueue(data)
}

// ServeWS upgrades an HTTP request and starts the client's pumps.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(hub, conn)
	hub.register <- client

	go client.writePump()
	go client.readPump()
}
