package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"

	"github.com/example/campus-scheduler/internal/config"
	"github.com/example/campus-scheduler/internal/notify"
	"github.com/example/campus-scheduler/internal/scheduler"
)

type capturingSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *capturingSender) SendCode(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[email] = code
	return nil
}

func (s *capturingSender) code(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		SQLiteDSN:           filepath.Join(t.TempDir(), "campus.db"),
		JWTSecret:           "test-secret",
		TokenTTL:            time.Hour,
		OTPTTL:              5 * time.Minute,
		Location:            time.UTC,
		DigestCron:          "0 7 * * *",
		BootstrapAdminEmail: "admin@campus.edu",
		LogLevel:            slog.LevelDebug,
	}
}

func startApp(t *testing.T, cfg config.Config) (*httptest.Server, *capturingSender, *app) {
	t.Helper()

	sender := &capturingSender{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	a, err := newApp(context.Background(), cfg, logger, sender)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	server := httptest.NewServer(a.handler)
	t.Cleanup(func() {
		server.Close()
		a.Close()
	})
	return server, sender, a
}

func call(t *testing.T, server *httptest.Server, method, path, token string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func login(t *testing.T, server *httptest.Server, sender *capturingSender, email, name string) string {
	t.Helper()

	if status := call(t, server, http.MethodPost, "/auth/request-otp", "", map[string]string{"email": email, "name": name}, nil); status != http.StatusAccepted {
		t.Fatalf("request-otp status = %d", status)
	}
	code := sender.code(email)
	if len(code) != 6 {
		t.Fatalf("code = %q", code)
	}

	var auth struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if status := call(t, server, http.MethodPost, "/auth/verify-otp", "", map[string]string{"email": email, "code": code}, &auth); status != http.StatusOK {
		t.Fatalf("verify-otp status = %d", status)
	}
	if auth.Token == "" {
		t.Fatal("empty token")
	}

	// codes are single use
	if status := call(t, server, http.MethodPost, "/auth/verify-otp", "", map[string]string{"email": email, "code": code}, nil); status != http.StatusUnauthorized {
		t.Fatalf("reused code status = %d", status)
	}
	return auth.Token
}

func TestAppBookingFlow(t *testing.T) {
	server, sender, a := startApp(t, testConfig(t))

	adminToken := login(t, server, sender, "admin@campus.edu", "")
	studentToken := login(t, server, sender, "ravi@campus.edu", "Ravi")

	var me struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	call(t, server, http.MethodGet, "/me", adminToken, nil, &me)
	if me.User.Role != "admin" {
		t.Fatalf("bootstrap admin role = %q", me.User.Role)
	}

	if status := call(t, server, http.MethodPost, "/rooms", studentToken, map[string]any{"name": "A-101"}, nil); status != http.StatusForbidden {
		t.Fatalf("student room create status = %d", status)
	}

	var created struct {
		Room struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"room"`
	}
	if status := call(t, server, http.MethodPost, "/rooms", adminToken, map[string]any{"name": "A-101", "capacity": 60}, &created); status != http.StatusCreated {
		t.Fatalf("room create status = %d", status)
	}
	if created.Room.Type != "classroom" {
		t.Fatalf("room type = %q", created.Room.Type)
	}

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/notifications/stream?access_token=" + studentToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for a.hub.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	day := time.Now().UTC().AddDate(0, 0, 1)
	for scheduler.IsHoliday(day.Weekday()) {
		day = day.AddDate(0, 0, 1)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)
	booking := map[string]any{
		"room_id": created.Room.ID,
		"start":   start.Format(time.RFC3339),
		"end":     start.Add(time.Hour).Format(time.RFC3339),
	}
	if status := call(t, server, http.MethodPost, "/bookings", studentToken, booking, nil); status != http.StatusCreated {
		t.Fatalf("booking status = %d", status)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event notify.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Data.Type != "booking" {
		t.Fatalf("event = %+v", event)
	}

	overlapping := map[string]any{
		"room_id": created.Room.ID,
		"start":   start.Add(30 * time.Minute).Format(time.RFC3339),
		"end":     start.Add(90 * time.Minute).Format(time.RFC3339),
	}
	if status := call(t, server, http.MethodPost, "/bookings", adminToken, overlapping, nil); status != http.StatusConflict {
		t.Fatalf("overlapping booking status = %d", status)
	}

	adjacent := map[string]any{
		"room_id": created.Room.ID,
		"start":   start.Add(time.Hour).Format(time.RFC3339),
		"end":     start.Add(2 * time.Hour).Format(time.RFC3339),
	}
	if status := call(t, server, http.MethodPost, "/bookings", adminToken, adjacent, nil); status != http.StatusCreated {
		t.Fatalf("adjacent booking status = %d", status)
	}

	var availability struct {
		Status string `json:"status"`
	}
	path := "/rooms/" + created.Room.ID + "/availability?date=" + start.Format("2006-01-02") + "&time=" + start.Add(10*time.Minute).Format("15:04")
	if status := call(t, server, http.MethodGet, path, studentToken, nil, &availability); status != http.StatusOK {
		t.Fatalf("availability status = %d", status)
	}
	if availability.Status != "booked" {
		t.Fatalf("availability = %q", availability.Status)
	}

	var notifications struct {
		Notifications []struct {
			Type string `json:"type"`
		} `json:"notifications"`
	}
	call(t, server, http.MethodGet, "/notifications", studentToken, nil, &notifications)
	if len(notifications.Notifications) != 2 {
		t.Fatalf("notifications = %+v", notifications.Notifications)
	}
}

func TestAppHealthWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()
	server, sender, _ := startApp(t, cfg)

	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if status := call(t, server, http.MethodGet, "/healthz", "", nil, &health); status != http.StatusOK {
		t.Fatalf("health status = %d", status)
	}
	if health.Checks["database"] != "ok" || health.Checks["redis"] != "ok" {
		t.Fatalf("checks = %+v", health.Checks)
	}

	login(t, server, sender, "admin@campus.edu", "")
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("consumed code still stored: %v", keys)
	}
}

func TestNewAppRejectsBadDigestSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.DigestCron = "not a schedule"

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if _, err := newApp(context.Background(), cfg, logger, nil); err == nil {
		t.Fatal("expected error for invalid digest schedule")
	}
}
