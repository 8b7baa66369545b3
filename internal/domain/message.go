package domain

import "time"

type MessageKind string

const (
	KindSystem    MessageKind = "system"
	KindText      MessageKind = "text"
	KindFile      MessageKind = "file"
	KindClipboard MessageKind = "clipboard"
)

// FileRef points at an already-uploaded payload. The bytes move over the
// HTTP upload path; only this reference travels through the room.
type FileRef struct {
	OriginalName string `json:"originalName"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
	URL          string `json:"url"`
}

// Message is immutable once appended to a room's log. Sender fields are
// empty for system-kind messages.
type Message struct {
	ID         string      `json:"id"`
	Kind       MessageKind `json:"kind"`
	Content    string      `json:"content,omitempty"`
	File       *FileRef    `json:"file,omitempty"`
	Sender     string      `json:"sender,omitempty"`
	SenderConn ConnID      `json:"senderConn,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}
