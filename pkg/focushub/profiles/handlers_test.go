package profiles

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vjfocus/focushub/pkg/focushub/auth"
	"github.com/vjfocus/focushub/pkg/focushub/models"
)

var testTokens = auth.NewTokens("test-secret", time.Hour)

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	service, _ := newTestService(db)
	handler := NewHandler(service)

	social := r.Group("/social")
	social.Use(auth.AuthMiddleware(db, testTokens))
	handler.RegisterRoutes(social)

	return r
}

func doJSON(router *gin.Engine, method, path string, body interface{}, user models.User) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	token, _ := testTokens.Generate(user.ID, user.Username)
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestProfileHandlers(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	resp := doJSON(router, "PUT", "/social/profile", UpdateProfileRequest{
		DisplayName: "Alice",
		IsPublic:    false,
	}, alice)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, "GET", "/social/profile", nil, alice)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	var profile Profile
	json.Unmarshal(resp.Body.Bytes(), &profile)
	if profile.DisplayName != "Alice" {
		t.Errorf("Expected display name 'Alice', got '%s'", profile.DisplayName)
	}

	resp = doJSON(router, "GET", fmt.Sprintf("/social/profile/%d", alice.ID), nil, bob)
	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.Code)
	}
	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["error"] != "Profile is private" {
		t.Errorf("Expected 'Profile is private', got '%s'", body["error"])
	}

	resp = doJSON(router, "GET", "/social/profile/999", nil, bob)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}

	resp = doJSON(router, "GET", "/social/profile/abc", nil, bob)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

func TestSearchHandler(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	alice := createTestUser(t, db, "alice")
	createTestUser(t, db, "alicia")

	resp := doJSON(router, "GET", "/social/users/search?q=ali", nil, alice)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	var results []SearchResult
	json.Unmarshal(resp.Body.Bytes(), &results)
	if len(results) != 1 || results[0].Username != "alicia" {
		t.Errorf("Expected only alicia, got %+v", results)
	}

	resp = doJSON(router, "GET", "/social/users/search?q=a", nil, alice)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}
