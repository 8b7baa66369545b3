// Package domain contains entities without logic, just meta-data
package domain

import "time"

const MaxDeviceNameLen = 36

// Device is one connected client's membership record inside a room.
// It lives exactly as long as its connection is joined.
type Device struct {
	Conn       ConnID     `json:"connId"`
	Name       string     `json:"name"`
	OS         string     `json:"os"`
	FormFactor FormFactor `json:"formFactor"`
	JoinedAt   time.Time  `json:"joinedAt"`
	IsCreator  bool       `json:"isCreator"`
}

func NewDevice(conn ConnID, name string, class DeviceClass, creator bool) *Device {
	name = truncate(name, MaxDeviceNameLen)
	return &Device{
		Conn:       conn,
		Name:       name,
		OS:         class.OS,
		FormFactor: class.FormFactor,
		JoinedAt:   time.Now(),
		IsCreator:  creator,
	}
}
