package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dvolkov/lanroom/internal/domain"
)

// member pairs a device's meta with its transport endpoint. This is what
// the session stores and fans out to.
type member struct {
	dev *domain.Device
	sig SignalConnection
}

// Session is a threadsafe in-memory room: ordered membership plus an
// append-only message log. Fan-out runs under the same lock as the log so
// members observe messages in append order.
type Session struct {
	room *domain.Room

	mu       sync.RWMutex
	order    []domain.ConnID
	members  map[domain.ConnID]*member
	messages []domain.Message
}

func NewSession(room *domain.Room) *Session {
	return &Session{
		room:    room,
		members: make(map[domain.ConnID]*member),
	}
}

// Room returns a copy of the room metadata.
func (s *Session) Room() domain.Room { return *s.room }

func (s *Session) DeviceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Session) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// AddDevice inserts a member preserving join order. A display-name
// collision gets the suffix " (N)" with N = member count + 1, computed
// before insertion. Returns the effective name.
func (s *Session) AddDevice(dev *domain.Device, sig SignalConnection) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if s.members[id].dev.Name == dev.Name {
			dev.Name = fmt.Sprintf("%s (%d)", dev.Name, len(s.order)+1)
			break
		}
	}
	if _, ok := s.members[dev.Conn]; !ok {
		s.order = append(s.order, dev.Conn)
	}
	s.members[dev.Conn] = &member{dev: dev, sig: sig}
	log.Info().Str("module", "core.session").Str("room", string(s.room.ID)).Str("conn", string(dev.Conn)).Str("name", dev.Name).Msg("device added")
	return dev.Name
}

// RemoveDevice is a no-op when the connection is not a member.
func (s *Session) RemoveDevice(conn domain.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[conn]; !ok {
		return
	}
	delete(s.members, conn)
	for i, id := range s.order {
		if id == conn {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.session").Str("room", string(s.room.ID)).Str("conn", string(conn)).Msg("device removed")
}

// Publish assigns the server-side id and timestamp, appends to the log
// and fans the encoded frame out to every member before releasing the
// lock. Append order and observed order cannot diverge. Returns the
// stored message.
func (s *Session) Publish(msg domain.Message, encode func(domain.Message) (Frame, error)) domain.Message {
	msg.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.CreatedAt = time.Now()
	s.messages = append(s.messages, msg)

	f, err := encode(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "core.session").Str("room", string(s.room.ID)).Msg("publish encode")
		return msg
	}
	s.fanout(f)
	return msg
}

// Broadcast delivers an already-encoded frame to every member; used for
// events outside the message log, like membership updates.
func (s *Session) Broadcast(f Frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.fanout(f)
}

// fanout requires s.mu held. Fire and forget: a full or closed
// connection drops the frame.
func (s *Session) fanout(f Frame) {
	for _, id := range s.order {
		m := s.members[id]
		if m.sig == nil {
			continue
		}
		_ = m.sig.TrySend(f)
	}
}

// Devices returns member copies in join order.
func (s *Session) Devices() []domain.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Device, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.members[id].dev)
	}
	return out
}

// Messages returns the full history; the initial snapshot for a client
// that just created or joined the room.
func (s *Session) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
