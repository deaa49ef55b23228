package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]time.Time),
	}
}

func (s *sessionStore) create() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
	token := uuid.NewString()
	expires := now.Add(s.ttl)
	s.items[token] = expires
	return token, expires
}

func (s *sessionStore) valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.items[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(s.items, token)
		return false
	}
	return true
}

func (s *sessionStore) revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login 校验配置中的账号密码并签发会话
// POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.auth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.auth.Password)) == 1
	if !userOK || !passOK {
		h.logger.Warn("login rejected", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token, expires := h.sessions.create()
	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires})
}

// Logout 注销当前会话
// POST /api/logout
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.revoke(bearerToken(c))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RequireAuth 要求 Authorization: Bearer <token>
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" || !h.sessions.valid(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	v := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(v[len(prefix):])
}
