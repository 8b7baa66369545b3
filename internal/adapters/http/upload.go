package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dvolkov/lanroom/internal/app"
	"github.com/dvolkov/lanroom/internal/domain"
	"github.com/dvolkov/lanroom/internal/storage"
)

type uploadResponse struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimetype"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// UploadHandler persists a multipart payload into the room's namespace.
// The client follows up with a send-file event over the websocket; this
// endpoint only moves bytes.
func UploadHandler(reg *app.Registry, store *storage.DiskStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		if _, err := reg.ByID(domain.RoomID(roomID)); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}

		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
			return
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
			return
		}
		defer f.Close()

		ref, err := store.Save(roomID, fh.Filename, fh.Header.Get("Content-Type"), f)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("room", roomID).Msg("upload store failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}

		c.JSON(http.StatusOK, uploadResponse{
			ID:           uuid.NewString(),
			OriginalName: ref.OriginalName,
			Filename:     ref.Filename,
			Size:         ref.Size,
			MimeType:     ref.MimeType,
			URL:          ref.URL,
			UploadedAt:   time.Now(),
		})
	}
}
