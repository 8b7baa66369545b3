package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dvolkov/lanroom/internal/app"
	"github.com/dvolkov/lanroom/internal/domain"
)

type roomReply struct {
	Type    string            `json:"type"`
	Success bool              `json:"success"`
	Room    *app.RoomSnapshot `json:"room,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func (ctl *Controller) handleCreateRoom(
	connID domain.ConnID,
	userAgent string,
	conn *WsConn,
	data []byte,
) {
	type payload struct {
		Type       string `json:"type"`
		RoomName   string `json:"roomName,omitempty"`
		DeviceName string `json:"deviceName,omitempty"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create payload")
		ctl.sendJSON(conn, roomReply{Type: "room-created", Error: "bad payload"})
		return
	}

	snap, err := ctl.Coord.CreateRoom(connID, p.RoomName, p.DeviceName, userAgent)
	if err != nil {
		ctl.sendJSON(conn, roomReply{Type: "room-created", Error: err.Error()})
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(connID)).Str("room", snap.ID).Str("code", snap.Code).Msg("room created")
	ctl.sendJSON(conn, roomReply{Type: "room-created", Success: true, Room: snap})
}

func (ctl *Controller) handleJoinRoom(
	connID domain.ConnID,
	userAgent string,
	conn *WsConn,
	data []byte,
) {
	type payload struct {
		Type       string `json:"type"`
		Code       string `json:"code"`
		DeviceName string `json:"deviceName,omitempty"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, roomReply{Type: "room-joined", Error: "bad payload"})
		return
	}

	snap, err := ctl.Coord.JoinRoom(connID, p.Code, p.DeviceName, userAgent)
	if err != nil {
		if errors.Is(err, app.ErrRoomNotFound) {
			ctl.sendJSON(conn, roomReply{Type: "room-joined", Error: "room not found"})
			return
		}
		ctl.sendJSON(conn, roomReply{Type: "room-joined", Error: err.Error()})
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(connID)).Str("room", snap.ID).Msg("joined room")
	ctl.sendJSON(conn, roomReply{Type: "room-joined", Success: true, Room: snap})
}
