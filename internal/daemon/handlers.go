package daemon

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/docstore"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned by /v1/auth/login.
type LoginResponse struct {
	Token     string    `json:"token"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Service) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

func (s *Service) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := docstore.NormalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email looks invalid"})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.cfg.Store.CreateUser(c.Request.Context(), email, hash)
	if errors.Is(err, docstore.ErrUserExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		return
	}
	if err != nil {
		s.recordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"uid": u.ID, "email": u.Email})
}

func (s *Service) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.cfg.Store.UserByEmail(c.Request.Context(), req.Email)
	if err == nil {
		err = auth.CheckPassword(u.PasswordHash, req.Password)
	}
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) && !errors.Is(err, auth.ErrInvalidCredentials) {
			s.recordError(err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, exp, err := s.cfg.Issuer.Issue(u.ID, u.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, UID: u.ID, Email: u.Email, ExpiresAt: exp})
}

func (s *Service) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		claims, err := s.cfg.Issuer.Verify(tokenString)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Set("uid", claims.Subject)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func (s *Service) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"uid": c.GetString("uid"), "email": c.GetString("email")})
}

func (s *Service) handleEvents(c *gin.Context) {
	c.JSON(http.StatusOK, s.eventsFor(c.GetString("uid")))
}

func (s *Service) handleGetDocument(c *gin.Context) {
	snap, err := s.cfg.Store.Get(c.Request.Context(), c.GetString("uid"))
	if errors.Is(err, docstore.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if err != nil {
		s.recordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Service) handleMergeDocument(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := docstore.ValidateFields(fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := s.cfg.Store.Merge(c.Request.Context(), c.GetString("uid"), fields)
	if err != nil {
		s.recordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "write failed"})
		return
	}
	s.recordWrite(snap)
	c.JSON(http.StatusOK, gin.H{"uid": snap.UID, "version": snap.Version, "updated_at": snap.UpdatedAt})
}

// handleStream sends the current document immediately, then every later
// write, as "snapshot" events.
func (s *Service) handleStream(c *gin.Context) {
	uid := c.GetString("uid")
	w := c.Writer

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := make(chan StreamMessage, 1)
	id := s.addSubscriber(uid, ch)
	defer s.removeSubscriber(id)

	current := StreamMessage{}
	snap, err := s.cfg.Store.Get(c.Request.Context(), uid)
	switch {
	case err == nil:
		current = StreamMessage{Version: snap.Version, Exists: true, UpdatedAt: snap.UpdatedAt, Fields: snap.Fields}
	case !errors.Is(err, docstore.ErrNotFound):
		s.recordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed"})
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := writeSSE(w, "snapshot", current); err != nil {
		return
	}
	w.Flush()

	heartbeat := time.NewTicker(s.cfg.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case msg := <-ch:
			if msg.Version <= current.Version {
				continue
			}
			current = msg
			if err := writeSSE(w, "snapshot", msg); err != nil {
				return
			}
			w.Flush()
		case <-heartbeat.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
			w.Flush()
		}
	}
}
