package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dvolkov/lanroom/internal/core"
	"github.com/dvolkov/lanroom/internal/domain"
)

var ErrRoomNotFound = errors.New("room not found")

// Registry owns the authoritative room table and the join-code index.
// Both maps mutate under one mutex so a code is never observed free by
// two concurrent creates and is released exactly when its room dies.
// Admission (create, join by code) and conditional deletion share that
// mutex too: a join can never interleave with an eviction check.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Session
	codes map[string]domain.RoomID
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[domain.RoomID]*core.Session),
		codes: make(map[string]domain.RoomID),
	}
}

// Create allocates a fresh room id and join code, inserts both index
// entries and admits the creator, all atomically. Returns the session
// and the creator's effective device name.
func (r *Registry) Create(name string, dev *domain.Device, sig core.SignalConnection) (*core.Session, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, err := generateCode(func(c string) bool {
		_, ok := r.codes[c]
		return ok
	})
	if err != nil {
		return nil, "", err
	}
	if name == "" {
		name = "Room " + code
	}
	sess := core.NewSession(domain.NewRoom(name, code, dev.Conn))
	devName := sess.AddDevice(dev, sig)
	room := sess.Room()
	r.rooms[room.ID] = sess
	r.codes[code] = room.ID
	log.Info().Str("module", "app.registry").Str("room", string(room.ID)).Str("code", code).Str("name", name).Msg("room created")
	return sess, devName, nil
}

// JoinByCode resolves a join code and admits the device while holding
// the registry lock, so admission cannot race DeleteIfEmpty into a
// deleted room. Returns the session and the effective device name.
func (r *Registry) JoinByCode(code string, dev *domain.Device, sig core.SignalConnection) (*core.Session, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.codes[code]
	if !ok {
		return nil, "", ErrRoomNotFound
	}
	sess, ok := r.rooms[id]
	if !ok {
		return nil, "", ErrRoomNotFound
	}
	devName := sess.AddDevice(dev, sig)
	return sess, devName, nil
}

func (r *Registry) ByCode(code string) (*core.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.codes[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	sess, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return sess, nil
}

func (r *Registry) ByID(id domain.RoomID) (*core.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return sess, nil
}

// Delete removes both index entries. Idempotent: deletion may race with a
// scheduled eviction, the loser must see a clean no-op.
func (r *Registry) Delete(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(id)
}

// DeleteIfEmpty removes the room only if it still has no members, with
// the membership check and removal in one critical section. Reports
// whether the room was deleted.
func (r *Registry) DeleteIfEmpty(id domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.rooms[id]
	if !ok {
		return false
	}
	if sess.DeviceCount() > 0 {
		return false
	}
	r.remove(id)
	return true
}

// remove requires r.mu held.
func (r *Registry) remove(id domain.RoomID) {
	sess, ok := r.rooms[id]
	if !ok {
		return
	}
	delete(r.codes, sess.Room().Code)
	delete(r.rooms, id)
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room deleted")
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
