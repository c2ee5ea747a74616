package gateway

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestConnection(cm *ConnectionManager, username string, buffer int) *Connection {
	return &Connection{
		ID:          "conn-" + username,
		Username:    username,
		Send:        make(chan []byte, buffer),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}
}

func TestSendAfterUnregisterDoesNotPanic(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	conn := newTestConnection(cm, "alice", 1)
	cm.registerConnection(conn)
	cm.unregisterConnection(conn)

	// A reply landing after the pump exited must be dropped, not sent
	// on the closed channel.
	conn.sendReply(EventTypeInfo, map[string]interface{}{"message": "late"})

	if conn.trySend([]byte("late")) {
		t.Error("trySend after unregister should report false")
	}
}

func TestTrySendReportsFullBuffer(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	conn := newTestConnection(cm, "bob", 1)
	cm.registerConnection(conn)

	if !conn.trySend([]byte("first")) {
		t.Fatal("first send should fit the buffer")
	}
	if conn.trySend([]byte("second")) {
		t.Error("send into a full buffer should be dropped")
	}
}

func TestBroadcastSkipsUnregisteredConnection(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	stayer := newTestConnection(cm, "alice", 4)
	leaver := newTestConnection(cm, "bob", 4)
	cm.registerConnection(stayer)
	cm.registerConnection(leaver)
	cm.unregisterConnection(leaver)

	event := &GameEvent{
		Type:      EventTypePlayerJoined,
		Timestamp: time.Now().UTC(),
		Data:      json.RawMessage(`{"username":"carol","player_count":3}`),
	}
	cm.handleBroadcast(BroadcastMessage{Event: event})

	select {
	case <-stayer.Send:
	default:
		t.Error("registered connection should receive the broadcast")
	}
	if msg, ok := <-leaver.Send; ok {
		t.Errorf("unregistered connection received %s", msg)
	}
}
