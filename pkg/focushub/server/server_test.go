package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vjfocus/focushub/pkg/focushub/auth"
	"github.com/vjfocus/focushub/pkg/focushub/config"
	"github.com/vjfocus/focushub/pkg/focushub/friends"
	"github.com/vjfocus/focushub/pkg/focushub/groups"
	"github.com/vjfocus/focushub/pkg/focushub/logging"
	"github.com/vjfocus/focushub/pkg/focushub/meetings"
	"github.com/vjfocus/focushub/pkg/focushub/models"
)

const testFrontend = "http://localhost:5173"

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Environment: config.EnvDevelopment, LogLevel: "info", Version: "test"},
		HTTP:     config.HTTPConfig{Port: "0", FrontendURL: testFrontend, ShutdownTimeout: time.Second},
		Database: config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"},
		Auth:     config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
		Meetings: config.MeetingsConfig{MeetBaseURL: "https://meet.example.com"},
	}
}

// setupFullServer creates the handler exactly as the serve command does
func setupFullServer(t *testing.T) http.Handler {
	return New(testConfig(), setupTestDB(t), logging.Discard()).Handler()
}

type client struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp := httptest.NewRecorder()
	c.handler.ServeHTTP(resp, req)
	return resp
}

func (c *client) expect(resp *httptest.ResponseRecorder, status int, out interface{}) {
	c.t.Helper()
	if resp.Code != status {
		c.t.Fatalf("Expected status %d, got %d: %s", status, resp.Code, resp.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
			c.t.Fatalf("Failed to decode response: %v", err)
		}
	}
}

func registerUser(t *testing.T, handler http.Handler, username string) (*client, uint) {
	c := &client{t: t, handler: handler}
	var registered auth.AuthResponse
	c.expect(c.do("POST", "/api/auth/register", map[string]string{
		"username": username,
		"password": "password123",
	}), http.StatusCreated, &registered)
	c.token = registered.Token
	return c, registered.User.ID
}

func TestHealthEndpoints(t *testing.T) {
	handler := setupFullServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		req, _ := http.NewRequest("GET", path, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, resp.Code)
		}
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	handler := setupFullServer(t)
	anonymous := &client{t: t, handler: handler}

	routes := []struct{ method, path string }{
		{"GET", "/api/social/friends"},
		{"GET", "/api/social/groups"},
		{"GET", "/api/social/profile"},
		{"GET", "/api/meetings/upcoming"},
		{"POST", "/api/meetings"},
	}
	for _, route := range routes {
		resp := anonymous.do(route.method, route.path, nil)
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status 401, got %d", route.method, route.path, resp.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := setupFullServer(t)

	req, _ := http.NewRequest("OPTIONS", "/api/social/groups", nil)
	req.Header.Set("Origin", testFrontend)
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != testFrontend {
		t.Errorf("Expected allowed origin %s, got '%s'", testFrontend, got)
	}
	if got := resp.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Expected credentials allowed, got '%s'", got)
	}

	req, _ = http.NewRequest("OPTIONS", "/api/social/groups", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no allowed origin for foreign site, got '%s'", got)
	}
}

func TestFriendsAndPrivateProfileFlow(t *testing.T) {
	handler := setupFullServer(t)
	u1, u1ID := registerUser(t, handler, "user1")
	u2, u2ID := registerUser(t, handler, "user2")
	u3, _ := registerUser(t, handler, "user3")

	u1.expect(u1.do("PUT", "/api/social/profile", map[string]interface{}{
		"display_name": "User One",
		"is_public":    false,
	}), http.StatusOK, nil)

	var request models.Friendship
	u1.expect(u1.do("POST", "/api/social/friends/request", friends.SendRequestRequest{AddresseeID: u2ID}), http.StatusCreated, &request)
	u2.expect(u2.do("PUT", "/api/social/friends/respond", friends.RespondRequest{
		FriendshipID: request.ID,
		Status:       string(models.FriendshipAccepted),
	}), http.StatusOK, nil)

	profilePath := fmt.Sprintf("/api/social/profile/%d", u1ID)
	u2.expect(u2.do("GET", profilePath, nil), http.StatusOK, nil)
	u3.expect(u3.do("GET", profilePath, nil), http.StatusForbidden, nil)

	var entries []friends.Entry
	u2.expect(u2.do("GET", "/api/social/friends", nil), http.StatusOK, &entries)
	if len(entries) != 1 || entries[0].RequestType != friends.RequestReceived {
		t.Errorf("Expected one received friendship, got %+v", entries)
	}
}

func TestGroupAndMeetingFlow(t *testing.T) {
	handler := setupFullServer(t)
	u1, _ := registerUser(t, handler, "user1")
	u2, _ := registerUser(t, handler, "user2")
	u3, _ := registerUser(t, handler, "user3")
	u4, _ := registerUser(t, handler, "user4")

	var group models.StudyGroup
	u1.expect(u1.do("POST", "/api/social/groups", groups.CreateGroupRequest{
		Name:       "Late Night Study",
		MaxMembers: 3,
	}), http.StatusCreated, &group)

	join := groups.JoinGroupRequest{InviteCode: group.InviteCode}
	u2.expect(u2.do("POST", "/api/social/groups/join", join), http.StatusOK, nil)
	u3.expect(u3.do("POST", "/api/social/groups/join", join), http.StatusOK, nil)
	u4.expect(u4.do("POST", "/api/social/groups/join", join), http.StatusConflict, nil)

	at := time.Now().Add(24 * time.Hour).UTC()
	var meeting models.Meeting
	u1.expect(u1.do("POST", "/api/meetings", meetings.ScheduleMeetingRequest{
		GroupID:     group.ID,
		Title:       "Review session",
		ScheduledAt: &at,
	}), http.StatusCreated, &meeting)

	base := fmt.Sprintf("/api/meetings/%d", meeting.ID)
	u2.expect(u2.do("PUT", base+"/respond", meetings.RespondRequest{Status: models.AttendeeAccepted}), http.StatusOK, nil)
	u3.expect(u3.do("PUT", base+"/respond", meetings.RespondRequest{Status: models.AttendeeDeclined}), http.StatusOK, nil)

	var attendees []meetings.Attendee
	u1.expect(u1.do("GET", base+"/attendees", nil), http.StatusOK, &attendees)
	if len(attendees) != 3 {
		t.Fatalf("Expected 3 attendees, got %d", len(attendees))
	}
	counts := map[models.AttendeeStatus]int{}
	for _, a := range attendees {
		counts[a.Status]++
	}
	if counts[models.AttendeeAccepted] != 2 || counts[models.AttendeeDeclined] != 1 {
		t.Errorf("Expected 2 accepted and 1 declined, got %v", counts)
	}

	u4.expect(u4.do("GET", base+"/attendees", nil), http.StatusForbidden, nil)

	var upcoming []meetings.UpcomingMeeting
	u3.expect(u3.do("GET", "/api/meetings/upcoming", nil), http.StatusOK, &upcoming)
	if len(upcoming) != 1 || upcoming[0].AttendanceStatus != models.AttendeeDeclined {
		t.Errorf("Expected one declined upcoming meeting, got %+v", upcoming)
	}

	u2.expect(u2.do("PUT", base+"/status", meetings.UpdateStatusRequest{Status: models.MeetingCancelled}), http.StatusForbidden, nil)
	u1.expect(u1.do("PUT", base+"/status", meetings.UpdateStatusRequest{Status: models.MeetingCancelled}), http.StatusOK, nil)

	u3.expect(u3.do("GET", "/api/meetings/upcoming", nil), http.StatusOK, &upcoming)
	if len(upcoming) != 0 {
		t.Errorf("Expected cancelled meeting to drop from upcoming, got %d", len(upcoming))
	}
}
