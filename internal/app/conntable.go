package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dvolkov/lanroom/internal/core"
	"github.com/dvolkov/lanroom/internal/domain"
)

// connEntry is the explicit per-connection state: unattached while Room
// is empty, attached once create/join succeeds.
type connEntry struct {
	Room       domain.RoomID
	DeviceName string
	Signal     core.SignalConnection
}

// ConnTable tracks every live connection and which room, if any, it is
// attached to.
type ConnTable struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewConnTable() *ConnTable {
	return &ConnTable{conns: make(map[domain.ConnID]*connEntry)}
}

// Bind registers a freshly upgraded connection in the unattached state.
func (t *ConnTable) Bind(conn domain.ConnID, sig core.SignalConnection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[conn] = &connEntry{Signal: sig}
	log.Info().Str("module", "app.conns").Str("conn", string(conn)).Msg("connection bound")
}

func (t *ConnTable) Attach(conn domain.ConnID, room domain.RoomID, deviceName string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.conns[conn]
	if !ok {
		return false
	}
	e.Room = room
	e.DeviceName = deviceName
	return true
}

// Drop forgets the connection entirely; used on disconnect.
func (t *ConnTable) Drop(conn domain.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, conn)
	log.Info().Str("module", "app.conns").Str("conn", string(conn)).Msg("connection dropped")
}

// Attached reports the room a connection is joined to, if any.
func (t *ConnTable) Attached(conn domain.ConnID) (domain.RoomID, string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.conns[conn]
	if !ok || e.Room == "" {
		return "", "", false
	}
	return e.Room, e.DeviceName, true
}

func (t *ConnTable) Signal(conn domain.ConnID) (core.SignalConnection, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.conns[conn]
	if !ok || e.Signal == nil {
		return nil, false
	}
	return e.Signal, true
}
