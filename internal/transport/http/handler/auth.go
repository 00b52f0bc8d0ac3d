package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"powerbi-portal/internal/app"
	"powerbi-portal/internal/config"
	"powerbi-portal/internal/session"
	"powerbi-portal/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
	sessions    *session.Manager
	cookieCfg   config.SessionConfig
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func NewAuthHandler(authService *app.AuthService, sessions *session.Manager, cookieCfg config.SessionConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		cookieCfg:   cookieCfg,
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, "Username and password are required.")
		return
	}

	_, err := h.authService.Signup(c.Request.Context(), app.SignupInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Message(c, http.StatusBadRequest, "Username and password are required.")
		case errors.Is(err, app.ErrUsernameExists):
			response.Message(c, http.StatusConflict, "Username already exists.")
		default:
			response.Message(c, http.StatusInternalServerError, "Database error.")
		}
		return
	}

	response.Message(c, http.StatusCreated, "User created successfully! Please log in.")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredential) {
			response.Message(c, http.StatusUnauthorized, "Invalid username or password.")
			return
		}
		response.Message(c, http.StatusInternalServerError, "Server error.")
		return
	}

	cookie, err := h.sessions.Issue(c.Request.Context(), user.ID, user.Username)
	if err != nil {
		response.Message(c, http.StatusInternalServerError, "Server error.")
		return
	}

	h.setSessionCookie(c, cookie, int(h.sessions.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful!",
		"username": user.Username,
	})
}

// Me reports the current session without requiring one; anonymous is a valid
// answer, never an error.
func (h *AuthHandler) Me(c *gin.Context) {
	cookie, err := c.Cookie(h.cookieCfg.CookieName)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}

	record, err := h.sessions.Resolve(c.Request.Context(), cookie)
	if err != nil || record == nil {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loggedIn": true,
		"username": record.Username,
	})
}

// Logout destroys the current session whatever its state. Logging out twice,
// or with no session at all, still succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	cookie, err := c.Cookie(h.cookieCfg.CookieName)
	if err == nil && cookie != "" {
		ctx := c.Request.Context()
		if record, resolveErr := h.sessions.Resolve(ctx, cookie); resolveErr == nil && record != nil {
			h.authService.RecordLogout(ctx, record.UserID, record.Username)
		}
		_ = h.sessions.Revoke(ctx, cookie)
	}

	h.setSessionCookie(c, "", -1)
	response.Message(c, http.StatusOK, "Logout successful.")
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetCookie(h.cookieCfg.CookieName, value, maxAge, "/", "", false, true)
}
