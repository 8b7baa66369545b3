package http

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/dvolkov/lanroom/internal/app"
	"github.com/dvolkov/lanroom/internal/config"
)

// lanIP finds the address roommates should point their phones at: the
// first non-loopback IPv4 on any up interface.
func lanIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}

func joinURL(cfg *config.Config, code string) string {
	return fmt.Sprintf("http://%s:%d/?code=%s", lanIP(), cfg.Port, code)
}

// QrCodeHandler renders the join URL for a live code as a PNG data URI.
func QrCodeHandler(reg *app.Registry, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		if _, err := reg.ByCode(code); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}

		url := joinURL(cfg, code)
		png, err := qrcode.Encode(url, qrcode.Medium, 256)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"qr":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
			"url": url,
		})
	}
}

func ServerInfoHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ip":   lanIP(),
			"port": cfg.Port,
		})
	}
}

// RoomCountHandler exposes how many rooms are live. Deliberately not the
// rooms themselves: codes must stay shareable only by their members.
func RoomCountHandler(reg *app.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"count": reg.Count()})
	}
}
