package app

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dvolkov/lanroom/internal/core"
	"github.com/dvolkov/lanroom/internal/domain"
)

var ErrAlreadyAttached = errors.New("already in a room")

// Uploads is the external storage collaborator: the coordinator only ever
// asks it to drop a room's namespace at eviction.
type Uploads interface {
	RemoveRoom(roomID string) error
}

// RoomSnapshot is the full initial state handed to a client that just
// created or joined a room.
type RoomSnapshot struct {
	ID       string           `json:"id"`
	Code     string           `json:"code"`
	Name     string           `json:"name"`
	Devices  []domain.Device  `json:"devices"`
	Messages []domain.Message `json:"messages"`
}

type newMessageEvent struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

type deviceUpdateEvent struct {
	Type    string          `json:"type"`
	Devices []domain.Device `json:"devices"`
}

func encodeMessage(m domain.Message) (core.Frame, error) {
	b, err := json.Marshal(newMessageEvent{Type: "new-message", Message: m})
	return core.Frame(b), err
}

// Coordinator is the control surface for all room-mutating actions. It
// validates against the registry and drives session state; the session
// itself fans events out to its members.
type Coordinator struct {
	Reg     *Registry
	Conns   *ConnTable
	Uploads Uploads

	// Grace is how long an empty room survives before the eviction check.
	Grace       time.Duration
	HistoryWarn int
}

func NewCoordinator(reg *Registry, conns *ConnTable, uploads Uploads, grace time.Duration, historyWarn int) *Coordinator {
	return &Coordinator{
		Reg:         reg,
		Conns:       conns,
		Uploads:     uploads,
		Grace:       grace,
		HistoryWarn: historyWarn,
	}
}

// Connect registers a new unattached connection.
func (c *Coordinator) Connect(conn domain.ConnID, sig core.SignalConnection) {
	c.Conns.Bind(conn, sig)
}

// CreateRoom makes a fresh room with the caller as its first device and
// returns the initial snapshot. A connection already attached somewhere
// is rejected instead of leaking a stale membership.
func (c *Coordinator) CreateRoom(conn domain.ConnID, roomName, deviceName, userAgent string) (*RoomSnapshot, error) {
	if _, _, ok := c.Conns.Attached(conn); ok {
		return nil, ErrAlreadyAttached
	}
	class := domain.ResolveDevice(userAgent)
	if deviceName == "" {
		deviceName = class.DefaultName()
	}
	sig, _ := c.Conns.Signal(conn)
	sess, name, err := c.Reg.Create(roomName, domain.NewDevice(conn, deviceName, class, true), sig)
	if err != nil {
		return nil, err
	}
	c.Conns.Attach(conn, sess.Room().ID, name)

	sess.Publish(domain.Message{Kind: domain.KindSystem, Content: name + " created the room"}, encodeMessage)
	return snapshot(sess), nil
}

// JoinRoom resolves a join code and adds the caller to the room. The
// whole room, new member included, gets the system message and the
// refreshed device list.
func (c *Coordinator) JoinRoom(conn domain.ConnID, code, deviceName, userAgent string) (*RoomSnapshot, error) {
	if _, _, ok := c.Conns.Attached(conn); ok {
		return nil, ErrAlreadyAttached
	}
	class := domain.ResolveDevice(userAgent)
	if deviceName == "" {
		deviceName = class.DefaultName()
	}
	sig, _ := c.Conns.Signal(conn)
	sess, name, err := c.Reg.JoinByCode(code, domain.NewDevice(conn, deviceName, class, false), sig)
	if err != nil {
		return nil, err
	}
	c.Conns.Attach(conn, sess.Room().ID, name)

	sess.Publish(domain.Message{Kind: domain.KindSystem, Content: name + " joined"}, encodeMessage)
	c.broadcastDevices(sess)
	return snapshot(sess), nil
}

func (c *Coordinator) SendText(conn domain.ConnID, content string) {
	c.send(conn, domain.Message{Kind: domain.KindText, Content: content})
}

func (c *Coordinator) SendClipboard(conn domain.ConnID, content string) {
	c.send(conn, domain.Message{Kind: domain.KindClipboard, Content: content})
}

// SendFile records and broadcasts a reference to a payload that already
// travelled through the upload path.
func (c *Coordinator) SendFile(conn domain.ConnID, ref domain.FileRef) {
	c.send(conn, domain.Message{Kind: domain.KindFile, File: &ref})
}

// send is deliberately silent when the connection is unattached or its
// room is gone: best-effort messaging must not crash the connection.
func (c *Coordinator) send(conn domain.ConnID, msg domain.Message) {
	roomID, name, ok := c.Conns.Attached(conn)
	if !ok {
		return
	}
	sess, err := c.Reg.ByID(roomID)
	if err != nil {
		log.Debug().Str("module", "app.coordinator").Str("conn", string(conn)).Str("room", string(roomID)).Msg("send on evicted room dropped")
		return
	}
	msg.Sender = name
	msg.SenderConn = conn
	sess.Publish(msg, encodeMessage)
	if c.HistoryWarn > 0 && sess.MessageCount() == c.HistoryWarn {
		log.Warn().Str("module", "app.coordinator").Str("room", string(roomID)).Int("messages", c.HistoryWarn).Msg("room history is growing unbounded")
	}
}

// Disconnect detaches the connection, notifies the remaining members and,
// when the room just emptied, arms the delayed eviction check.
func (c *Coordinator) Disconnect(conn domain.ConnID) {
	roomID, name, attached := c.Conns.Attached(conn)
	c.Conns.Drop(conn)
	if !attached {
		return
	}
	sess, err := c.Reg.ByID(roomID)
	if err != nil {
		return
	}
	sess.RemoveDevice(conn)
	sess.Publish(domain.Message{Kind: domain.KindSystem, Content: name + " left"}, encodeMessage)
	c.broadcastDevices(sess)

	if sess.DeviceCount() == 0 {
		log.Info().Str("module", "app.coordinator").Str("room", string(roomID)).Dur("grace", c.Grace).Msg("room empty, eviction scheduled")
		time.AfterFunc(c.Grace, func() { c.evictIfEmpty(roomID) })
	}
}

// evictIfEmpty re-checks live state at fire time inside the registry's
// critical section; a device that rejoined during the grace period makes
// this a no-op.
func (c *Coordinator) evictIfEmpty(roomID domain.RoomID) {
	if !c.Reg.DeleteIfEmpty(roomID) {
		log.Info().Str("module", "app.coordinator").Str("room", string(roomID)).Msg("room gone or resurrected, eviction skipped")
		return
	}
	if c.Uploads != nil {
		if err := c.Uploads.RemoveRoom(string(roomID)); err != nil {
			log.Error().Err(err).Str("module", "app.coordinator").Str("room", string(roomID)).Msg("upload cleanup failed")
		}
	}
}

func (c *Coordinator) broadcastDevices(sess *core.Session) {
	b, err := json.Marshal(deviceUpdateEvent{Type: "device-update", Devices: sess.Devices()})
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("device update marshal")
		return
	}
	sess.Broadcast(b)
}

func snapshot(sess *core.Session) *RoomSnapshot {
	room := sess.Room()
	return &RoomSnapshot{
		ID:       string(room.ID),
		Code:     room.Code,
		Name:     room.Name,
		Devices:  sess.Devices(),
		Messages: sess.Messages(),
	}
}
