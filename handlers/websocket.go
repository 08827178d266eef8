package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatterbox/chatterbox-backend/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const persistTimeout = 5 * time.Second

// MessageStore is the persistence gateway for chat messages.
type MessageStore interface {
	Save(ctx context.Context, msg models.Message) error
	Recent(ctx context.Context, limit int64) ([]models.Message, error)
}

// ChatHandler upgrades HTTP requests to WebSocket connections and runs the
// per-connection chat session.
type ChatHandler struct {
	hub      *Hub
	messages MessageStore
}

func NewChatHandler(hub *Hub, messages MessageStore) *ChatHandler {
	return &ChatHandler{hub: hub, messages: messages}
}

func (ch *ChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	connection := newConnection(ch.hub, conn)
	ch.hub.register <- connection

	go connection.writePump()
	connection.readPump(ch.messages)
}

// readPump handles inbound frames until the socket closes or errors. Frames
// from one connection are processed strictly in arrival order.
func (c *Connection) readPump(store MessageStore) {
	defer c.close()

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Connection %s read error: %v", c.id, err)
			}
			break
		}
		c.handleFrame(store, raw)
	}
}

// writePump drains the send channel onto the socket. It exits when the hub
// closes the channel or a write fails.
func (c *Connection) writePump() {
	defer func() {
		if c.ws != nil {
			c.ws.Close()
		}
	}()

	for message := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Connection %s write error: %v", c.id, err)
			break
		}
	}
}

// handleFrame dispatches one inbound frame. A frame that fails to parse is
// dropped and logged; the connection stays open.
func (c *Connection) handleFrame(store MessageStore, raw []byte) {
	var frame models.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("Connection %s sent malformed frame, dropping: %v", c.id, err)
		return
	}

	switch frame.Type {
	case models.FrameNewUser:
		c.handleNewUser(frame)
	case models.FrameChatMessage:
		c.handleChatMessage(store, frame)
	default:
		log.Printf("Connection %s sent frame with unknown type %q, dropping", c.id, frame.Type)
	}
}

func (c *Connection) handleNewUser(frame models.InboundFrame) {
	if frame.Username == "" {
		log.Printf("Connection %s sent new-user frame without username, dropping", c.id)
		return
	}
	if c.username != "" {
		log.Printf("Connection %s already identified as %q, ignoring new-user", c.id, c.username)
		return
	}

	c.username = frame.Username
	c.hub.identify <- identification{conn: c, username: frame.Username}
	log.Printf("Connection %s identified as %q", c.id, frame.Username)

	c.broadcastNotification(fmt.Sprintf("User %s has joined the chat!", frame.Username))
}

func (c *Connection) handleChatMessage(store MessageStore, frame models.InboundFrame) {
	if c.username == "" {
		log.Printf("Connection %s sent chat-message before new-user, dropping", c.id)
		return
	}
	if frame.Message == "" {
		log.Printf("Connection %s sent chat-message without message, dropping", c.id)
		return
	}

	now := time.Now().UTC()
	msg := models.Message{Sender: c.username, Message: frame.Message, Timestamp: now}

	// Persistence is fire-and-forget: the broadcast does not wait for
	// durability, and a failed write must not suppress the fan-out.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := store.Save(ctx, msg); err != nil {
			log.Printf("Connection %s failed to persist message: %v", c.id, err)
		}
	}()

	payload, err := json.Marshal(models.NewChatBroadcast(c.username, frame.Message, now))
	if err != nil {
		log.Printf("Connection %s failed to marshal chat broadcast: %v", c.id, err)
		return
	}
	c.hub.Broadcast(payload, c)
}

func (c *Connection) broadcastNotification(message string) {
	payload, err := json.Marshal(models.NewNotification(message))
	if err != nil {
		log.Printf("Connection %s failed to marshal notification: %v", c.id, err)
		return
	}
	c.hub.Broadcast(payload, c)
}

// close runs the close transition exactly once: unregister from the hub and,
// if the connection had identified, announce the departure.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.setState(stateClosing)
		if c.ws != nil {
			c.ws.Close()
		}

		c.hub.unregister <- c

		if c.username != "" {
			c.broadcastNotification(fmt.Sprintf("User %s has left the chat!", c.username))
		}
	})
}
