package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dvolkov/lanroom/internal/domain"
)

// Send-family events have no direct reply; the broadcast is the ack.

func (ctl *Controller) handleSendText(connID domain.ConnID, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad text payload")
		return
	}
	ctl.Coord.SendText(connID, p.Content)
}

func (ctl *Controller) handleSendClipboard(connID domain.ConnID, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad clipboard payload")
		return
	}
	ctl.Coord.SendClipboard(connID, p.Content)
}

func (ctl *Controller) handleSendFile(connID domain.ConnID, data []byte) {
	var p struct {
		Type         string `json:"type"`
		OriginalName string `json:"originalName"`
		Filename     string `json:"filename"`
		Size         int64  `json:"size"`
		MimeType     string `json:"mimetype"`
		URL          string `json:"url"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad file payload")
		return
	}
	ctl.Coord.SendFile(connID, domain.FileRef{
		OriginalName: p.OriginalName,
		Filename:     p.Filename,
		Size:         p.Size,
		MimeType:     p.MimeType,
		URL:          p.URL,
	})
}
