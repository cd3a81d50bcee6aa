package gateway

import (
	"testing"
)

func newIdleConnection(cm *ConnectionManager, id string) *Connection {
	c := &Connection{
		id:      id,
		send:    make(chan []byte, cm.config.SendBufferSize),
		done:    make(chan struct{}),
		manager: cm,
	}
	cm.registerConnection(c)
	return c
}

func TestConnection_SendClosesSlowConsumer(t *testing.T) {
	config := DefaultConnectionConfig()
	config.SendBufferSize = 1
	cm := NewConnectionManager(config, nil)

	slow := newIdleConnection(cm, "slow")
	other := newIdleConnection(cm, "other")
	if got := cm.Count(); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}

	// Nothing drains the buffer, so the second send overflows it
	slow.Send([]byte(`[1]`))
	if got := cm.Count(); got != 2 {
		t.Fatalf("count after first send = %d, want 2", got)
	}
	slow.Send([]byte(`[2]`))

	if got := cm.Count(); got != 1 {
		t.Fatalf("count after overflow = %d, want 1", got)
	}
	select {
	case <-slow.done:
	default:
		t.Fatalf("slow connection was not marked done")
	}

	// Sending to a closed connection is a no-op
	slow.Send([]byte(`[3]`))
	if got := len(slow.send); got != 1 {
		t.Fatalf("buffered after close = %d, want 1", got)
	}

	select {
	case <-other.done:
		t.Fatalf("unrelated connection was closed")
	default:
	}
}

func TestConnectionManager_CloseAll(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	conns := []*Connection{newIdleConnection(cm, "a"), newIdleConnection(cm, "b")}

	cm.CloseAll()

	if got := cm.Count(); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
	for _, c := range conns {
		select {
		case <-c.done:
		default:
			t.Fatalf("connection %s still open", c.id)
		}
	}
}
