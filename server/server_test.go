package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"postpilot/config"
	"postpilot/db/models"
	"postpilot/db/repository"
	"postpilot/db/service"
	"postpilot/generator"
	"postpilot/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.InitTestLogger()
	os.Exit(m.Run())
}

type stubGenerator struct {
	err   error
	calls int
}

func (g *stubGenerator) GeneratePost(ctx context.Context, user *models.User) (*generator.Bundle, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &generator.Bundle{
		Micro: fmt.Sprintf("micro #%d", g.calls),
		Short: fmt.Sprintf("short #%d", g.calls),
		Long:  fmt.Sprintf("# long #%d", g.calls),
	}, nil
}

func (g *stubGenerator) GenerateReply(ctx context.Context, user *models.User, post *models.Post, replyContent string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "thanks for reading!", nil
}

func newTestServer(t *testing.T, gen generator.Generator) *httptest.Server {
	cfg := config.DefaultConfig()
	cfg.Ingest.RequestsPerSecond = 1000
	cfg.Ingest.Burst = 1000
	return newTestServerWithConfig(t, gen, cfg)
}

func newTestServerWithConfig(t *testing.T, gen generator.Generator, cfg *config.Config) *httptest.Server {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Session{}, &models.Post{}, &models.Interaction{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	postRepo := repository.NewPostRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)

	auth := service.NewAuthService(userRepo, sessionRepo, time.Hour, 4)
	profiles := service.NewProfileService(userRepo)
	posts := service.NewPostService(postRepo, userRepo, gen, 5*time.Second)
	interactions := service.NewInteractionService(interactionRepo, postRepo, userRepo, gen, 5*time.Second)
	stats := service.NewStatsService(postRepo, interactionRepo)

	srv := New(cfg, auth, profiles, posts, interactions, stats)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var parsed map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func errorCode(t *testing.T, body map[string]json.RawMessage) string {
	t.Helper()
	var detail struct {
		Code string `json:"code"`
	}
	if raw, ok := body["error"]; ok {
		_ = json.Unmarshal(raw, &detail)
	}
	return detail.Code
}

func register(t *testing.T, base string) (token, userID string) {
	t.Helper()
	resp, body := doJSON(t, "POST", base+"/api/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "correct horse battery",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	json.Unmarshal(body["token"], &token)
	json.Unmarshal(body["userId"], &userID)
	return token, userID
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t, &stubGenerator{})
	token, userID := register(t, ts.URL)
	if token == "" || userID == "" {
		t.Fatal("register returned empty credentials")
	}

	// Duplicate email conflicts.
	resp, body := doJSON(t, "POST", ts.URL+"/api/auth/register", "", map[string]string{
		"username": "alice2", "email": "alice@example.com", "password": "correct horse battery",
	})
	if resp.StatusCode != http.StatusConflict || errorCode(t, body) != "DUPLICATE_EMAIL" {
		t.Errorf("duplicate register: status %d code %s", resp.StatusCode, errorCode(t, body))
	}

	// Wrong password is a 401 with a stable code.
	resp, body = doJSON(t, "POST", ts.URL+"/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized || errorCode(t, body) != "INVALID_CREDENTIALS" {
		t.Errorf("bad login: status %d code %s", resp.StatusCode, errorCode(t, body))
	}

	// Authenticated endpoints reject missing and bogus tokens up front.
	for _, badToken := range []string{"", "bogus"} {
		resp, body = doJSON(t, "GET", ts.URL+"/api/profile", badToken, nil)
		if resp.StatusCode != http.StatusUnauthorized || errorCode(t, body) != "UNAUTHENTICATED" {
			t.Errorf("token %q: status %d code %s", badToken, resp.StatusCode, errorCode(t, body))
		}
	}

	// Logout invalidates, and is idempotent.
	if resp, _ := doJSON(t, "POST", ts.URL+"/api/auth/logout", token, nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("logout status = %d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, "POST", ts.URL+"/api/auth/logout", token, nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("second logout status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "GET", ts.URL+"/api/profile", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("token survived logout: %d", resp.StatusCode)
	}
}

func TestPostWorkflowOverHTTP(t *testing.T) {
	ts := newTestServer(t, &stubGenerator{})
	token, _ := register(t, ts.URL)

	// Generate a draft.
	resp, body := doJSON(t, "POST", ts.URL+"/api/posts/generate", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	var postID, status string
	json.Unmarshal(body["postId"], &postID)
	json.Unmarshal(body["status"], &status)
	if status != "Pending" {
		t.Fatalf("fresh post status = %s", status)
	}

	// Approve it.
	resp, _ = doJSON(t, "PUT", ts.URL+"/api/posts/"+postID+"/approve", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d", resp.StatusCode)
	}

	// A later reject is a 409 with the transition code.
	resp, body = doJSON(t, "PUT", ts.URL+"/api/posts/"+postID+"/reject", token, nil)
	if resp.StatusCode != http.StatusConflict || errorCode(t, body) != "INVALID_TRANSITION" {
		t.Errorf("reject after approve: status %d code %s", resp.StatusCode, errorCode(t, body))
	}

	// Unknown post is a 404.
	resp, body = doJSON(t, "PUT", ts.URL+"/api/posts/nope/approve", token, nil)
	if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != "UNKNOWN_POST" {
		t.Errorf("unknown approve: status %d code %s", resp.StatusCode, errorCode(t, body))
	}

	// External publication confirmation moves Approved -> Posted.
	resp, _ = doJSON(t, "POST", ts.URL+"/ingest/publications", "", map[string]string{"postId": postID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publication ingest status = %d", resp.StatusCode)
	}
	resp, body = doJSON(t, "GET", ts.URL+"/api/posts/"+postID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get post status = %d", resp.StatusCode)
	}
	json.Unmarshal(body["status"], &status)
	if status != "Posted" {
		t.Errorf("post status = %s, want Posted", status)
	}

	// Dashboard aggregates reflect the preceding writes.
	resp, body = doJSON(t, "GET", ts.URL+"/api/stats", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var pendingPosts, activePosts float64
	json.Unmarshal(body["pendingPosts"], &pendingPosts)
	json.Unmarshal(body["activePosts"], &activePosts)
	if pendingPosts != 0 || activePosts != 1 {
		t.Errorf("stats = pending %v active %v, want 0/1", pendingPosts, activePosts)
	}
}

func TestGenerationFailureOverHTTP(t *testing.T) {
	ts := newTestServer(t, &stubGenerator{err: fmt.Errorf("model offline")})
	token, _ := register(t, ts.URL)

	resp, body := doJSON(t, "POST", ts.URL+"/api/posts/generate", token, nil)
	if resp.StatusCode != http.StatusBadGateway || errorCode(t, body) != "GENERATION_UNAVAILABLE" {
		t.Fatalf("generate: status %d code %s", resp.StatusCode, errorCode(t, body))
	}

	// No orphan rows appear.
	resp, _ = doJSON(t, "GET", ts.URL+"/api/posts", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
}

func TestInteractionFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t, &stubGenerator{})
	token, _ := register(t, ts.URL)

	resp, body := doJSON(t, "POST", ts.URL+"/api/posts/generate", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	var postID string
	json.Unmarshal(body["postId"], &postID)

	// A reply arrives on the unauthenticated ingest path.
	resp, body = doJSON(t, "POST", ts.URL+"/ingest/replies", "", map[string]string{
		"postId": postID, "platform": "twitter", "replyContent": "nice post!",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("reply ingest status = %d", resp.StatusCode)
	}
	var interactionID string
	json.Unmarshal(body["interactionId"], &interactionID)

	resp, body = doJSON(t, "POST", ts.URL+"/ingest/replies", "", map[string]string{
		"postId": "nope", "platform": "twitter", "replyContent": "hello",
	})
	if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != "UNKNOWN_POST" {
		t.Errorf("unknown-post ingest: status %d code %s", resp.StatusCode, errorCode(t, body))
	}

	// Ask for a suggestion, then respond.
	resp, body = doJSON(t, "GET", ts.URL+"/api/interactions/"+interactionID+"/suggest", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("suggest status = %d", resp.StatusCode)
	}
	var suggestion string
	json.Unmarshal(body["suggestion"], &suggestion)
	if suggestion == "" {
		t.Error("empty suggestion")
	}

	resp, _ = doJSON(t, "PUT", ts.URL+"/api/interactions/"+interactionID+"/respond", token, map[string]string{"response": "thanks!"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("respond status = %d", resp.StatusCode)
	}
	resp, body = doJSON(t, "PUT", ts.URL+"/api/interactions/"+interactionID+"/respond", token, map[string]string{"response": "again"})
	if resp.StatusCode != http.StatusConflict || errorCode(t, body) != "ALREADY_RESPONDED" {
		t.Errorf("second respond: status %d code %s", resp.StatusCode, errorCode(t, body))
	}

	// List and stats line up.
	resp, body = doJSON(t, "GET", ts.URL+"/api/interactions?page=1&limit=10", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var total float64
	json.Unmarshal(body["total"], &total)
	if total != 1 {
		t.Errorf("total = %v, want 1", total)
	}

	resp, body = doJSON(t, "GET", ts.URL+"/api/interactions/stats", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var stats struct{ Total, Responded, Pending float64 }
	json.Unmarshal(body["total"], &stats.Total)
	json.Unmarshal(body["responded"], &stats.Responded)
	json.Unmarshal(body["pending"], &stats.Pending)
	if stats.Total != 1 || stats.Responded != 1 || stats.Pending != 0 {
		t.Errorf("stats = %+v, want {1 1 0}", stats)
	}
}

func TestProfileEndpoints(t *testing.T) {
	ts := newTestServer(t, &stubGenerator{})
	token, _ := register(t, ts.URL)

	resp, body := doJSON(t, "PUT", ts.URL+"/api/profile", token, map[string]any{
		"topics":      []string{"go"},
		"articleUrls": []string{"https://example.com/a"},
		"tone":        "casual",
		"purpose":     "share engineering notes",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile update status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, "GET", ts.URL+"/api/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile get status = %d", resp.StatusCode)
	}
	var tone string
	json.Unmarshal(body["tone"], &tone)
	if tone != "casual" {
		t.Errorf("tone = %q, want casual", tone)
	}

	// Validation errors name the offending field.
	resp, body = doJSON(t, "PUT", ts.URL+"/api/profile", token, map[string]any{"tone": "sarcastic"})
	if resp.StatusCode != http.StatusBadRequest || errorCode(t, body) != "VALIDATION_ERROR" {
		t.Fatalf("bad tone: status %d code %s", resp.StatusCode, errorCode(t, body))
	}
	var detail struct {
		Field string `json:"field"`
	}
	json.Unmarshal(body["error"], &detail)
	if detail.Field != "tone" {
		t.Errorf("offending field = %q, want tone", detail.Field)
	}
}

func TestIngestRateLimit(t *testing.T) {
	srvCfg := config.DefaultConfig()
	srvCfg.Ingest.RequestsPerSecond = 1
	srvCfg.Ingest.Burst = 1

	tight := newTestServerWithConfig(t, &stubGenerator{}, srvCfg)

	var limited bool
	for i := 0; i < 5; i++ {
		resp, _ := doJSON(t, "POST", tight.URL+"/ingest/replies", "", map[string]string{
			"postId": "whatever", "platform": "twitter", "replyContent": "x",
		})
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("burst of ingest requests never hit the limiter")
	}
}
