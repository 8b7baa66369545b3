package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dvolkov/lanroom/internal/app"
	"github.com/dvolkov/lanroom/internal/config"
	"github.com/dvolkov/lanroom/internal/domain"
	"github.com/dvolkov/lanroom/internal/storage"
)

func testDevice(conn domain.ConnID) *domain.Device {
	class := domain.DeviceClass{FormFactor: domain.Desktop, OS: "Linux"}
	return domain.NewDevice(conn, "Alice", class, true)
}

func testRouter(t *testing.T) (*gin.Engine, *app.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore() unexpected error: %v", err)
	}
	reg := app.NewRegistry()
	cfg := &config.Config{Port: 8080, EvictGrace: time.Minute}

	r := gin.New()
	r.POST("/api/upload/:roomId", UploadHandler(reg, store))
	r.GET("/api/qrcode/:code", QrCodeHandler(reg, cfg))
	r.GET("/api/server-info", ServerInfoHandler(cfg))
	r.GET("/api/rooms", RoomCountHandler(reg))
	return r, reg
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile() unexpected error: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	r, reg := testRouter(t)
	sess, _, err := reg.Create("Team", testDevice("c1"), nil)
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	roomID := string(sess.Room().ID)

	t.Run("unknown room", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "a.txt", "hi")
		req := httptest.NewRequest(http.MethodPost, "/api/upload/nope", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("missing file field", func(t *testing.T) {
		body, ct := multipartBody(t, "wrong", "a.txt", "hi")
		req := httptest.NewRequest(http.MethodPost, "/api/upload/"+roomID, body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "notes.txt", "payload")
		req := httptest.NewRequest(http.MethodPost, "/api/upload/"+roomID, body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
		}

		var resp uploadResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response json: %v", err)
		}
		if resp.ID == "" {
			t.Error("response missing id")
		}
		if resp.OriginalName != "notes.txt" {
			t.Errorf("originalName = %q, want notes.txt", resp.OriginalName)
		}
		if resp.Size != int64(len("payload")) {
			t.Errorf("size = %d, want %d", resp.Size, len("payload"))
		}
		if resp.URL == "" || resp.Filename == "" {
			t.Error("response missing locator fields")
		}
	})
}

func TestQrCodeHandler(t *testing.T) {
	r, reg := testRouter(t)
	sess, _, err := reg.Create("Team", testDevice("c1"), nil)
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	code := sess.Room().Code

	t.Run("unknown code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/qrcode/000000", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("live code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/qrcode/"+code, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			Qr  string `json:"qr"`
			URL string `json:"url"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response json: %v", err)
		}
		if len(resp.Qr) < len("data:image/png;base64,") {
			t.Error("qr data URI missing")
		}
		if resp.URL == "" {
			t.Error("join url missing")
		}
	})
}

func TestServerInfoHandler(t *testing.T) {
	r, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/server-info", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		IP   string `json:"ip"`
		Port int    `json:"port"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp.IP == "" || resp.Port != 8080 {
		t.Errorf("server-info = %+v, want ip and port 8080", resp)
	}
}

func TestRoomCountHandler(t *testing.T) {
	r, reg := testRouter(t)
	if _, _, err := reg.Create("One", testDevice("c1"), nil); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if _, _, err := reg.Create("Two", testDevice("c2"), nil); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}
