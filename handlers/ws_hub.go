package handlers

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// connState is the lifecycle of a Connection. Only open connections are
// eligible to receive broadcasts.
type connState int32

const (
	stateConnecting connState = iota
	stateOpen
	stateClosing
	stateClosed
)

const sendBufferSize = 256

// Connection represents one WebSocket client. The username is empty until
// the client identifies itself with a new-user frame; it is written only by
// the connection's own read goroutine.
type Connection struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	hub       *Hub
	username  string
	state     atomic.Int32
	closeOnce sync.Once
}

func newConnection(hub *Hub, ws *websocket.Conn) *Connection {
	c := &Connection{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		hub:  hub,
	}
	c.state.Store(int32(stateConnecting))
	return c
}

func (c *Connection) State() connState {
	return connState(c.state.Load())
}

func (c *Connection) setState(s connState) {
	c.state.Store(int32(s))
}

type identification struct {
	conn     *Connection
	username string
}

type broadcastMessage struct {
	payload []byte
	exclude *Connection
}

// Hub is the connection registry and broadcast dispatcher. A single Run
// goroutine owns all mutations; the mutex only covers the map so that
// snapshot readers (dashboard, tests) do not race the loop.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Connection]string

	register   chan *Connection
	identify   chan identification
	unregister chan *Connection
	broadcast  chan broadcastMessage
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Connection]string),
		register:    make(chan *Connection),
		identify:    make(chan identification),
		unregister:  make(chan *Connection),
		broadcast:   make(chan broadcastMessage),
		done:        make(chan struct{}),
	}
}

// Run processes registrations, identifications, unregistrations, and
// broadcasts until Stop is called. Call it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case conn := <-h.register:
			h.add(conn)
		case ident := <-h.identify:
			h.bind(ident.conn, ident.username)
		case conn := <-h.unregister:
			h.remove(conn)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Stop terminates the Run loop.
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast fans payload out to every open connection except exclude.
func (h *Hub) Broadcast(payload []byte, exclude *Connection) {
	h.broadcast <- broadcastMessage{payload: payload, exclude: exclude}
}

func (h *Hub) add(conn *Connection) {
	h.mu.Lock()
	h.connections[conn] = ""
	total := len(h.connections)
	h.mu.Unlock()

	conn.setState(stateOpen)
	log.Printf("Connection %s registered. Total connections: %d", conn.id, total)
}

// bind associates a username with an already-registered connection. Usernames
// are not required to be unique across connections.
func (h *Hub) bind(conn *Connection, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[conn]; ok {
		h.connections[conn] = username
	}
}

// remove drops the connection from the registry and returns the username it
// had bound, if any. Removing an unknown connection is a no-op.
func (h *Hub) remove(conn *Connection) (string, bool) {
	h.mu.Lock()
	username, ok := h.connections[conn]
	if ok {
		delete(h.connections, conn)
	}
	total := len(h.connections)
	h.mu.Unlock()

	if !ok {
		return "", false
	}

	conn.setState(stateClosed)
	close(conn.send)
	log.Printf("Connection %s unregistered. Total connections: %d", conn.id, total)
	return username, username != ""
}

// fanOut delivers one payload to every tracked connection except the
// excluded one. Connections not in the open state are skipped; a connection
// with a full send buffer is dropped rather than allowed to stall the rest.
func (h *Hub) fanOut(msg broadcastMessage) {
	for _, conn := range h.snapshot() {
		if conn == msg.exclude {
			continue
		}
		if conn.State() != stateOpen {
			continue
		}

		select {
		case conn.send <- msg.payload:
		default:
			log.Printf("Connection %s send buffer full, dropping connection", conn.id)
			h.remove(conn)
		}
	}
}

func (h *Hub) snapshot() []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]*Connection, 0, len(h.connections))
	for conn := range h.connections {
		conns = append(conns, conn)
	}
	return conns
}

func (h *Hub) contains(conn *Connection) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.connections[conn]
	return ok
}

// OnlineUsernames returns the sorted, deduplicated usernames of identified
// connections.
func (h *Hub) OnlineUsernames() []string {
	h.mu.RLock()
	usernames := lo.Values(h.connections)
	h.mu.RUnlock()

	usernames = lo.Filter(usernames, func(name string, _ int) bool {
		return name != ""
	})
	usernames = lo.Uniq(usernames)
	sort.Strings(usernames)
	return usernames
}
