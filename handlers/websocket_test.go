package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatterbox/chatterbox-backend/models"
)

type fakeMessageStore struct {
	mu    sync.Mutex
	saved []models.Message
	err   error
}

func (f *fakeMessageStore) Save(_ context.Context, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, msg)
	return nil
}

func (f *fakeMessageStore) Recent(context.Context, int64) ([]models.Message, error) {
	return nil, nil
}

func (f *fakeMessageStore) savedMessages() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, len(f.saved))
	copy(out, f.saved)
	return out
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func registered(t *testing.T, hub *Hub) *Connection {
	t.Helper()
	conn := newConnection(hub, nil)
	hub.register <- conn
	require.Eventually(t, func() bool {
		return conn.State() == stateOpen
	}, time.Second, time.Millisecond)
	return conn
}

func identified(t *testing.T, hub *Hub, username string) *Connection {
	t.Helper()
	conn := registered(t, hub)
	conn.username = username
	hub.identify <- identification{conn: conn, username: username}
	return conn
}

func TestNewUserIdentifiesAndNotifiesOthers(t *testing.T) {
	hub := startHub(t)
	store := &fakeMessageStore{}
	alice := registered(t, hub)
	observer := registered(t, hub)

	alice.handleFrame(store, []byte(`{"type":"new-user","username":"alice"}`))

	var note models.Notification
	require.NoError(t, json.Unmarshal(recvPayload(t, observer), &note))
	require.Equal(t, models.FrameNotification, note.Type)
	require.Equal(t, "User alice has joined the chat!", note.Message)

	requireNoPayload(t, alice)
	require.Equal(t, "alice", alice.username)
	require.Eventually(t, func() bool {
		usernames := hub.OnlineUsernames()
		return len(usernames) == 1 && usernames[0] == "alice"
	}, time.Second, time.Millisecond)
}

func TestChatMessagePersistsAndBroadcasts(t *testing.T) {
	hub := startHub(t)
	store := &fakeMessageStore{}
	alice := identified(t, hub, "alice")
	observer := registered(t, hub)

	alice.handleFrame(store, []byte(`{"type":"chat-message","message":"hi"}`))

	var broadcast models.ChatBroadcast
	require.NoError(t, json.Unmarshal(recvPayload(t, observer), &broadcast))
	require.Equal(t, models.FrameChatMessage, broadcast.Type)
	require.Equal(t, "alice", broadcast.Sender)
	require.Equal(t, "hi", broadcast.Message)
	require.WithinDuration(t, time.Now(), broadcast.Timestamp, time.Minute)

	requireNoPayload(t, alice)

	require.Eventually(t, func() bool {
		return len(store.savedMessages()) == 1
	}, time.Second, time.Millisecond)
	saved := store.savedMessages()[0]
	require.Equal(t, "alice", saved.Sender)
	require.Equal(t, "hi", saved.Message)
}

func TestChatMessageBeforeNewUserIsRejected(t *testing.T) {
	hub := startHub(t)
	store := &fakeMessageStore{}
	unidentified := registered(t, hub)
	observer := registered(t, hub)

	unidentified.handleFrame(store, []byte(`{"type":"chat-message","message":"hi"}`))

	requireNoPayload(t, observer)
	require.Empty(t, store.savedMessages())
}

func TestMalformedFrameDroppedConnectionStaysUsable(t *testing.T) {
	hub := startHub(t)
	store := &fakeMessageStore{}
	sender := registered(t, hub)
	observer := registered(t, hub)

	sender.handleFrame(store, []byte(`not json`))
	requireNoPayload(t, observer)
	require.Empty(t, store.savedMessages())

	// The same connection can still identify afterwards.
	sender.handleFrame(store, []byte(`{"type":"new-user","username":"alice"}`))
	require.Contains(t, string(recvPayload(t, observer)), "User alice has joined the chat!")
}

func TestUnknownFrameTypeDropped(t *testing.T) {
	hub := startHub(t)
	store := &fakeMessageStore{}
	sender := registered(t, hub)
	observer := registered(t, hub)

	sender.handleFrame(store, []byte(`{"type":"ban-hammer","message":"hi"}`))
	requireNoPayload(t, observer)
}

func TestNewUserWithoutUsernameDropped(t *testing.T) {
	hub := startHub(t)
	store := &fakeMessageStore{}
	sender := registered(t, hub)
	observer := registered(t, hub)

	sender.handleFrame(store, []byte(`{"type":"new-user"}`))
	requireNoPayload(t, observer)
	require.Empty(t, sender.username)
}

func TestSecondNewUserIgnored(t *testing.T) {
	hub := startHub(t)
	store := &fakeMessageStore{}
	alice := identified(t, hub, "alice")
	observer := registered(t, hub)

	alice.handleFrame(store, []byte(`{"type":"new-user","username":"mallory"}`))

	requireNoPayload(t, observer)
	require.Equal(t, "alice", alice.username)
}

func TestPersistenceFailureDoesNotBlockBroadcast(t *testing.T) {
	hub := startHub(t)
	store := &fakeMessageStore{err: errors.New("mongo is down")}
	alice := identified(t, hub, "alice")
	observer := registered(t, hub)

	alice.handleFrame(store, []byte(`{"type":"chat-message","message":"hi"}`))

	require.Contains(t, string(recvPayload(t, observer)), `"sender":"alice"`)
}

func TestFramesFromOneConnectionKeepOrder(t *testing.T) {
	hub := startHub(t)
	store := &fakeMessageStore{}
	alice := identified(t, hub, "alice")
	observer := registered(t, hub)

	alice.handleFrame(store, []byte(`{"type":"chat-message","message":"first"}`))
	alice.handleFrame(store, []byte(`{"type":"chat-message","message":"second"}`))

	require.Contains(t, string(recvPayload(t, observer)), `"message":"first"`)
	require.Contains(t, string(recvPayload(t, observer)), `"message":"second"`)
}

func TestCloseBroadcastsLeaveAndUnregisters(t *testing.T) {
	hub := startHub(t)
	alice := identified(t, hub, "alice")
	observer := registered(t, hub)

	alice.close()

	var note models.Notification
	require.NoError(t, json.Unmarshal(recvPayload(t, observer), &note))
	require.Equal(t, "User alice has left the chat!", note.Message)
	require.False(t, hub.contains(alice))
}

func TestCloseOfUnidentifiedConnectionIsSilent(t *testing.T) {
	hub := startHub(t)
	unidentified := registered(t, hub)
	observer := registered(t, hub)

	unidentified.close()

	requireNoPayload(t, observer)
	require.Eventually(t, func() bool {
		return !hub.contains(unidentified)
	}, time.Second, time.Millisecond)
}
