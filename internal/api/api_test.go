package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prajxal/fakenews-api/internal/api"
	"github.com/prajxal/fakenews-api/internal/auth"
	"github.com/prajxal/fakenews-api/internal/cache"
	"github.com/prajxal/fakenews-api/internal/service"
	"github.com/prajxal/fakenews-api/internal/store"
	"github.com/prajxal/fakenews-api/pkg/models"
)

const testContent = "This is a long enough article body to pass the fifty character validation rule."

type testServer struct {
	router *gin.Engine
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := store.NewMemStore()
	tokens := auth.NewTokens("test-secret", time.Hour)
	logger := zap.NewNop()

	svc := service.NewService(repo, repo, repo,
		cache.NewArticleCache(rdb, time.Minute, logger), tokens, logger, 4)

	router := gin.New()
	api.RegisterRoutes(router, api.NewHandler(svc, logger), api.AuthRequired(tokens, repo))
	return &testServer{router: router, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func (s *testServer) registerUser(t *testing.T, username, email string) string {
	t.Helper()
	w, body := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username, "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return body["token"].(string)
}

func (s *testServer) submitArticle(t *testing.T, token, title string) string {
	t.Helper()
	w, body := s.do(t, http.MethodPost, "/api/articles", token, gin.H{
		"title": title, "content": testContent,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return body["article"].(map[string]any)["article_id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])
}

func TestUnmatchedRoute(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodGet, "/api/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", body["error"])
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	_, hasHash := user["password_hash"]
	assert.False(t, hasHash, "password hash must never be serialized")

	// duplicate email, different username
	w, _ = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice2", "email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])

	w, _ = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/articles", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access denied. No token provided.", body["error"])

	w, body = s.do(t, http.MethodGet, "/api/articles", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token.", body["error"])

	// expired token, distinguished from a malformed one
	expiredIssuer := auth.NewTokens("test-secret", -time.Minute)
	expired, err := expiredIssuer.Issue(&models.User{ID: "gone", Username: "gone"})
	require.NoError(t, err)
	w, body = s.do(t, http.MethodGet, "/api/articles", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token expired.", body["error"])

	// valid signature whose subject no longer exists
	orphan, err := s.tokens.Issue(&models.User{ID: "no-such-user", Username: "ghost"})
	require.NoError(t, err)
	w, body = s.do(t, http.MethodGet, "/api/articles", orphan, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token. User not found.", body["error"])
}

func TestSubmitAndFetchArticles(t *testing.T) {
	s := newTestServer(t)
	token := s.registerUser(t, "alice", "alice@example.com")

	// listing before any submission is an empty array, not an error
	w, body := s.do(t, http.MethodGet, "/api/articles", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["articles"], 0)

	w, body = s.do(t, http.MethodPost, "/api/articles", token, gin.H{
		"title": "Breaking: Miracle Cure", "content": "This cure is guaranteed to work for everyone who tries it...",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	prediction := body["prediction"].(map[string]any)
	assert.Equal(t, 0.75, prediction["fake_probability"])
	articleID := body["article"].(map[string]any)["article_id"].(string)

	// validation failures return the field-level error array
	w, body = s.do(t, http.MethodPost, "/api/articles", token, gin.H{
		"title": "", "content": "too short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, body["errors"], 2)

	w, body = s.do(t, http.MethodGet, "/api/articles", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	articles := body["articles"].([]any)
	require.Len(t, articles, 1)
	entry := articles[0].(map[string]any)
	assert.Equal(t, "alice", entry["user"].(map[string]any)["username"])
	require.NotNil(t, entry["prediction"])

	w, body = s.do(t, http.MethodGet, "/api/articles/"+articleID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, articleID, body["article"].(map[string]any)["article_id"])
	assert.NotNil(t, body["prediction"])

	w, _ = s.do(t, http.MethodGet, "/api/articles/b2f7d8e0-0000-4000-8000-000000000000", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackFlow(t *testing.T) {
	s := newTestServer(t)
	authorToken := s.registerUser(t, "alice", "alice@example.com")
	voterToken := s.registerUser(t, "bob", "bob@example.com")
	articleID := s.submitArticle(t, authorToken, "A perfectly normal story")

	w, body := s.do(t, http.MethodPost, "/api/feedback", voterToken, gin.H{
		"article_id": articleID, "feedback_type": "accurate",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "accurate", body["feedback"].(map[string]any)["feedback_type"])

	// same triple again: rejected, not duplicated
	w, body = s.do(t, http.MethodPost, "/api/feedback", voterToken, gin.H{
		"article_id": articleID, "feedback_type": "accurate",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "already submitted")

	w, _ = s.do(t, http.MethodPost, "/api/feedback", voterToken, gin.H{
		"article_id": "b2f7d8e0-0000-4000-8000-000000000000", "feedback_type": "helpful",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/feedback", voterToken, gin.H{
		"article_id": articleID, "feedback_type": "amazing",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodGet, "/api/feedback/article/"+articleID, voterToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	feedbacks := body["feedbacks"].([]any)
	require.Len(t, feedbacks, 1)
	assert.Equal(t, "bob", feedbacks[0].(map[string]any)["user"].(map[string]any)["username"])
}

func TestFeedbackBumpsReputation(t *testing.T) {
	s := newTestServer(t)
	authorToken := s.registerUser(t, "alice", "alice@example.com")
	voterToken := s.registerUser(t, "bob", "bob@example.com")
	articleID := s.submitArticle(t, authorToken, "A perfectly normal story")

	w, _ := s.do(t, http.MethodPost, "/api/feedback", voterToken, gin.H{
		"article_id": articleID, "feedback_type": "not_helpful",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// reputation is visible on the profile update response
	w, body := s.do(t, http.MethodPut, "/api/users/me", voterToken, gin.H{"username": "bob_prime"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["user"].(map[string]any)["reputation_score"])
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t)
	token := s.registerUser(t, "alice", "alice@example.com")
	s.registerUser(t, "taken", "taken@example.com")

	w, body := s.do(t, http.MethodPut, "/api/users/me", token, gin.H{"username": "alice_reborn"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice_reborn", body["user"].(map[string]any)["username"])

	w, _ = s.do(t, http.MethodPut, "/api/users/me", token, gin.H{"username": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodPut, "/api/users/me", token, gin.H{"username": "taken"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already taken", body["error"])
}
