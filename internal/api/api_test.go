package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/moltbook/api/internal/cache"
	"github.com/moltbook/api/internal/db"
	"github.com/moltbook/api/pkg/config"
)

const testFrontendURL = "http://localhost:3000"

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"},
		Server: config.ServerConfig{
			Port:        3001,
			FrontendURL: testFrontendURL,
			CORSOrigins: []string{testFrontendURL},
		},
		Auth:      config.AuthConfig{JWTSecret: "test-secret-0123456789", TokenTTL: time.Hour},
		Feed:      config.FeedConfig{DefaultLimit: 20, MaxLimit: 100},
		RateLimit: config.RateLimitConfig{Register: 1000, Window: time.Hour},
		Logging:   config.LoggingConfig{Level: "ERROR"},
		Telemetry: config.TelemetryConfig{PrometheusEnabled: true, ServiceName: "moltbook-api-test"},
	}
}

// newTestEngine wires a router over an in-memory database and local cache
func newTestEngine(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.Migrate(context.Background()))

	store, err := cache.NewLocal(256)
	require.NoError(t, err)

	engine := gin.New()
	NewRouter(cfg, database, store).SetupRoutes(engine)
	return engine
}

type APITestSuite struct {
	suite.Suite
	engine *gin.Engine
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	s.engine = newTestEngine(s.T(), testConfig())
}

func (s *APITestSuite) do(method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

// registerHuman creates a password account and returns its token and user
func (s *APITestSuite) registerHuman(username string) (string, map[string]interface{}) {
	w, body := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter22",
	}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return body["token"].(string), body["user"].(map[string]interface{})
}

// registerAgent creates an agent and returns its API key and ID
func (s *APITestSuite) registerAgent(name string) (string, string) {
	w, body := s.do(http.MethodPost, "/api/agents/register", gin.H{"name": name, "description": "a test agent"}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	agent := body["agent"].(map[string]interface{})
	return agent["apiKey"].(string), agent["id"].(string)
}

func (s *APITestSuite) createSubmolt(name string) map[string]interface{} {
	w, body := s.do(http.MethodPost, "/api/submolts", gin.H{"name": name, "description": gofakeit.HipsterSentence(8)}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return body["submolt"].(map[string]interface{})
}

func (s *APITestSuite) createPost(token, submoltID, title string) map[string]interface{} {
	w, body := s.do(http.MethodPost, "/api/posts", gin.H{
		"title":     title,
		"content":   "Some **bold** claims",
		"submoltId": submoltID,
	}, token)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return body["post"].(map[string]interface{})
}

func (s *APITestSuite) TestRegister() {
	token, user := s.registerHuman("alice")

	s.NotEmpty(token)
	s.Equal("alice", user["username"])
	s.Equal("alice@example.com", user["email"])
	s.Equal(false, user["isAgent"])

	w, body := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "hunter22",
	}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Username or email already exists", body["message"])

	w, body = s.do(http.MethodPost, "/api/auth/register", gin.H{"username": "bob"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Username and email are required", body["message"])

	w, body = s.do(http.MethodPost, "/api/auth/register", "{not json", "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid request body", body["message"])
}

func (s *APITestSuite) TestLogin() {
	s.registerHuman("carol")

	tests := []struct {
		name       string
		username   string
		password   string
		wantStatus int
	}{
		{"by username", "carol", "hunter22", http.StatusOK},
		{"by email", "carol@example.com", "hunter22", http.StatusOK},
		{"wrong password", "carol", "nope", http.StatusUnauthorized},
		{"unknown user", "nobody", "hunter22", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w, body := s.do(http.MethodPost, "/api/auth/login", gin.H{"username": tt.username, "password": tt.password}, "")
			s.Equal(tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				s.NotEmpty(body["token"])
				s.Equal(true, body["success"])
			} else {
				s.Equal("Invalid credentials", body["message"])
			}
		})
	}
}

func (s *APITestSuite) TestAgentRegistration() {
	w, body := s.do(http.MethodPost, "/api/auth/agent-register", gin.H{"name": "Clawd Bot"}, "")
	s.Require().Equal(http.StatusCreated, w.Code)

	agent := body["agent"].(map[string]interface{})
	apiKey := agent["apiKey"].(string)
	s.True(strings.HasPrefix(apiKey, "mb_"))
	s.Equal("Clawd Bot", agent["name"])
	s.Equal(testFrontendURL+"/claim/"+agent["id"].(string), agent["claimUrl"])

	w, body = s.do(http.MethodPost, "/api/agents/register", gin.H{"name": "clawd bot"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Agent name already taken", body["message"])

	w, body = s.do(http.MethodPost, "/api/agents/register", gin.H{"name": "   "}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Name is required", body["message"])

	w, body = s.do(http.MethodGet, "/api/agents/me", nil, apiKey)
	s.Require().Equal(http.StatusOK, w.Code)
	me := body["agent"].(map[string]interface{})
	s.Equal("clawd-bot", me["username"])
	s.Equal(apiKey, me["apiKey"])
	s.Equal(true, me["isAgent"])

	w, body = s.do(http.MethodGet, "/api/agents/status", nil, apiKey)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("pending_claim", body["status"])

	w, body = s.do(http.MethodGet, "/api/agents", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(body["agents"], 1)
}

func (s *APITestSuite) TestAuthRequired() {
	w, body := s.do(http.MethodPost, "/api/posts", gin.H{"title": "x", "submoltId": "y"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Unauthorized", body["message"])

	w, body = s.do(http.MethodGet, "/api/agents/me", nil, "garbage")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid token", body["message"])

	w, body = s.do(http.MethodGet, "/api/agents/me", nil, "mb_00000000000000000000000000000000")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid token", body["message"])
}

func (s *APITestSuite) TestPostLifecycle() {
	token, _ := s.registerHuman("dave")
	submolt := s.createSubmolt("General Chat")
	s.Equal("general-chat", submolt["name"])
	s.Equal("General Chat", submolt["displayName"])

	post := s.createPost(token, submolt["id"].(string), "First post")
	postID := post["id"].(string)
	s.Equal(float64(0), post["score"])
	s.Equal("dave", post["author"].(map[string]interface{})["username"])

	w, body := s.do(http.MethodGet, "/api/posts/"+postID, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	detail := body["post"].(map[string]interface{})
	s.Contains(detail["contentHtml"], "<strong>bold</strong>")
	s.Equal([]interface{}{}, detail["comments"])

	w, body = s.do(http.MethodGet, "/api/submolts/general-chat", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), body["submolt"].(map[string]interface{})["postCount"])

	w, body = s.do(http.MethodPost, "/api/posts", gin.H{"title": "Lost", "content": "adrift", "submoltId": "missing"}, token)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Submolt not found", body["message"])

	w, body = s.do(http.MethodPost, "/api/posts", gin.H{"title": "  "}, token)
	s.Equal(http.StatusBadRequest, w.Code)

	w, body = s.do(http.MethodPost, "/api/posts", gin.H{"title": "t", "submoltId": submolt["id"]}, token)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Title, content and submoltId are required", body["message"])

	w, _ = s.do(http.MethodPost, "/api/posts", gin.H{"title": "t", "content": " \n\t", "submoltId": submolt["id"]}, token)
	s.Equal(http.StatusBadRequest, w.Code)

	w, body = s.do(http.MethodGet, "/api/posts/missing", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Post not found", body["message"])
}

func (s *APITestSuite) TestFeed() {
	token, _ := s.registerHuman("erin")
	general := s.createSubmolt("general")
	crabs := s.createSubmolt("crabs")

	s.createPost(token, general["id"].(string), "one")
	s.createPost(token, general["id"].(string), "two")
	s.createPost(token, crabs["id"].(string), "three")

	w, body := s.do(http.MethodGet, "/api/posts?sort=new&limit=2", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(body["posts"], 2)
	page := body["pagination"].(map[string]interface{})
	s.Equal(float64(2), page["limit"])
	s.Equal(float64(0), page["offset"])
	s.Equal(float64(3), page["total"])

	w, body = s.do(http.MethodGet, "/api/posts?submolt=crabs", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(body["posts"], 1)

	w, body = s.do(http.MethodGet, "/api/posts?limit=1000&offset=-5&sort=bogus", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	page = body["pagination"].(map[string]interface{})
	s.Equal(float64(100), page["limit"])
	s.Equal(float64(0), page["offset"])

	// A cached page must not hide a post created after it
	s.createPost(token, crabs["id"].(string), "four")
	w, body = s.do(http.MethodGet, "/api/posts?submolt=crabs", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(body["posts"], 2)

	w, body = s.do(http.MethodGet, "/api/v1/posts", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(body["posts"], 4)
}

func (s *APITestSuite) TestVote() {
	authorToken, _ := s.registerHuman("frank")
	voterKey, _ := s.registerAgent("voter")
	submolt := s.createSubmolt("general")
	postID := s.createPost(authorToken, submolt["id"].(string), "vote here")["id"].(string)
	path := "/api/posts/" + postID + "/vote"

	w, body := s.do(http.MethodPost, path, gin.H{"type": "up"}, voterKey)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), body["score"])
	s.Equal("up", body["userVote"])

	w, body = s.do(http.MethodGet, "/api/posts/"+postID, nil, voterKey)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("up", body["userVote"])

	w, body = s.do(http.MethodGet, "/api/posts/"+postID, nil, authorToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(body, "userVote")
	s.Nil(body["userVote"])

	w, body = s.do(http.MethodGet, "/api/posts/"+postID, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(body, "userVote")

	w, body = s.do(http.MethodGet, "/api/posts/"+postID, nil, "garbage")
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(body, "userVote")

	w, body = s.do(http.MethodPost, path, gin.H{"type": "down"}, voterKey)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(-1), body["score"])
	s.Equal("down", body["userVote"])

	w, body = s.do(http.MethodPost, path, gin.H{"type": "down"}, voterKey)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(0), body["score"])
	s.Nil(body["userVote"])

	w, body = s.do(http.MethodGet, "/api/posts/"+postID, nil, voterKey)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Nil(body["userVote"])

	w, body = s.do(http.MethodPost, path, gin.H{"type": "sideways"}, voterKey)
	s.Equal(http.StatusBadRequest, w.Code)

	w, body = s.do(http.MethodPost, "/api/posts/missing/vote", gin.H{"type": "up"}, voterKey)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Post not found", body["message"])
}

func (s *APITestSuite) TestComments() {
	token, _ := s.registerHuman("grace")
	submolt := s.createSubmolt("general")
	postID := s.createPost(token, submolt["id"].(string), "thread")["id"].(string)
	path := "/api/posts/" + postID + "/comments"

	w, body := s.do(http.MethodPost, path, gin.H{"content": "top *level*"}, token)
	s.Require().Equal(http.StatusCreated, w.Code)
	top := body["comment"].(map[string]interface{})
	s.Nil(top["parentId"])
	s.Contains(top["contentHtml"], "<em>level</em>")

	w, body = s.do(http.MethodPost, path, gin.H{"content": "a reply", "parentId": top["id"]}, token)
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal(top["id"], body["comment"].(map[string]interface{})["parentId"])

	w, body = s.do(http.MethodPost, path, gin.H{"content": "orphan", "parentId": "missing"}, token)
	s.Equal(http.StatusBadRequest, w.Code)

	w, body = s.do(http.MethodPost, path, gin.H{"content": "   "}, token)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Content is required", body["message"])

	w, body = s.do(http.MethodPost, "/api/posts/missing/comments", gin.H{"content": "hello"}, token)
	s.Equal(http.StatusNotFound, w.Code)

	w, body = s.do(http.MethodGet, "/api/posts/"+postID, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	detail := body["post"].(map[string]interface{})
	s.Equal(float64(2), detail["commentCount"])
	comments := detail["comments"].([]interface{})
	s.Require().Len(comments, 1)
	s.Len(comments[0].(map[string]interface{})["replies"], 1)
}

func (s *APITestSuite) TestSubmolts() {
	token, _ := s.registerHuman("heidi")
	s.createSubmolt("general")

	w, body := s.do(http.MethodPost, "/api/submolts", gin.H{"name": "GENERAL"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Submolt already exists", body["message"])

	w, body = s.do(http.MethodGet, "/api/submolts/general", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, body["isMember"])

	w, body = s.do(http.MethodPost, "/api/submolts/general/join", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, body["joined"])
	s.Equal(float64(1), body["submolt"].(map[string]interface{})["memberCount"])

	w, body = s.do(http.MethodGet, "/api/submolts/general", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, body["isMember"])

	w, body = s.do(http.MethodGet, "/api/submolts/general", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(body, "isMember")

	w, body = s.do(http.MethodPost, "/api/submolts/general/join", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), body["submolt"].(map[string]interface{})["memberCount"])

	w, body = s.do(http.MethodPost, "/api/submolts/general/leave", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, body["joined"])
	s.Equal(float64(0), body["submolt"].(map[string]interface{})["memberCount"])

	w, _ = s.do(http.MethodPost, "/api/submolts/nowhere/join", nil, token)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, "/api/submolts/nowhere", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	w, body = s.do(http.MethodGet, "/api/submolts", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(body["submolts"], 1)
}

func (s *APITestSuite) TestUsers() {
	token, _ := s.registerHuman("ivan")
	submolt := s.createSubmolt("general")
	s.createPost(token, submolt["id"].(string), "mine")

	w, body := s.do(http.MethodGet, "/api/users/ivan", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	user := body["user"].(map[string]interface{})
	s.Equal("ivan", user["username"])
	s.NotContains(user, "email")
	s.Len(body["posts"], 1)

	w, _ = s.do(http.MethodGet, "/api/users/nobody", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	w, body = s.do(http.MethodGet, "/api/users/me/stats", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), body["posts"])
	s.Equal(float64(0), body["comments"])
	s.Equal(float64(0), body["followers"])
}

func (s *APITestSuite) TestSearch() {
	token, _ := s.registerHuman("judy")
	s.registerAgent("Molty McMoltface")
	submolt := s.createSubmolt("molting")
	s.createPost(token, submolt["id"].(string), "Molting tips")

	w, body := s.do(http.MethodGet, "/api/search?q=molt", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(body["posts"], 1)
	s.Len(body["submolts"], 1)
	s.Len(body["agents"], 1)

	w, body = s.do(http.MethodGet, "/api/search", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal([]interface{}{}, body["posts"])
	s.Equal([]interface{}{}, body["submolts"])
	s.Equal([]interface{}{}, body["agents"])
}

func (s *APITestSuite) TestHealthAndStats() {
	w, body := s.do(http.MethodGet, "/health", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("ok", body["status"])
	s.NotEmpty(body["timestamp"])

	w, _ = s.do(http.MethodGet, "/api/health", nil, "")
	s.Equal(http.StatusOK, w.Code)

	s.registerAgent("counter")
	w, body = s.do(http.MethodGet, "/api/stats", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), body["agents"])
	s.Equal(float64(0), body["posts"])
	s.NotContains(body, "success")

	w, _ = s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestNotFoundAndRequestID() {
	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("req-123", w.Header().Get("X-Request-ID"))
	s.JSONEq(`{"message":"Not found"}`, w.Body.String())
}

func TestRegisterRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Register = 2
	engine := newTestEngine(t, cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		raw, err := json.Marshal(gin.H{"name": gofakeit.Username() + gofakeit.DigitN(6)})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/agents/register", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		codes = append(codes, w.Code)

		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "3600", w.Header().Get("Retry-After"))
		}
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID(), Recovery())
	engine.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Something went wrong!"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestVoteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"missing post", db.ErrNotFound, http.StatusNotFound, `{"message":"Post not found"}`},
		{"concurrent vote", db.ErrDuplicate, http.StatusConflict, `{"message":"Vote already in progress, please retry"}`},
		{"wrapped duplicate", fmt.Errorf("cast: %w", db.ErrDuplicate), http.StatusConflict, `{"message":"Vote already in progress, please retry"}`},
		{"database down", errors.New("connection refused"), http.StatusInternalServerError, `{"message":"Failed to vote"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/posts/p1/vote", nil)

			respondError(c, voteError(tt.err), "Failed to vote")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
