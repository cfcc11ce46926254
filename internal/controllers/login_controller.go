package controllers

import (
	"net/http"

	"studylog/internal/metrics"
	"studylog/internal/middleware"
	"studylog/pkg/auth"

	"github.com/gin-gonic/gin"
)

type loginController struct {
	passwordHash string
	sessions     *auth.Sessions
	ttlSeconds   int
}

func NewLoginController(passwordHash string, sessions *auth.Sessions, ttlSeconds int) *loginController {
	return &loginController{passwordHash: passwordHash, sessions: sessions, ttlSeconds: ttlSeconds}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

func (h *loginController) Handle(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.passwordHash == "" || !auth.CheckPassword(h.passwordHash, req.Password) {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
		return
	}
	subject := req.Username
	if subject == "" {
		subject = "owner"
	}
	token, err := h.sessions.Issue(subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session issue failed"})
		return
	}
	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	c.SetCookie(middleware.SessionCookie, token, h.ttlSeconds, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged in", "token": token})
}
