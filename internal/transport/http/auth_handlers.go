package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avolkov/quickchat/internal/auth"
	"github.com/avolkov/quickchat/internal/relay"
	"github.com/avolkov/quickchat/internal/store"
)

// AuthHandlers provides HTTP handlers for auth, avatar and contact endpoints.
type AuthHandlers struct {
	authService *auth.Service
	store       store.Store
	hub         *relay.Hub
	log         *zerolog.Logger
}

// NewAuthHandlers creates a new auth handlers instance.
func NewAuthHandlers(authService *auth.Service, st store.Store, hub *relay.Hub, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		store:       st,
		hub:         hub,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SetAvatarRequest carries the base64-encoded avatar image.
type SetAvatarRequest struct {
	Image string `json:"image" binding:"required"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	AvatarImage string `json:"avatarImage"`
	AvatarSet   bool   `json:"isAvatarImageSet"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Status bool         `json:"status"`
	User   UserResponse `json:"user"`
	Token  string       `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		AvatarImage: u.AvatarImage,
		AvatarSet:   u.AvatarSet,
	}
}

// Register handles user registration.
// POST /api/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "username already used"})
		case errors.Is(err, auth.ErrEmailExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "email already used"})
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("username", req.Username).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("username", user.Username).Str("user_id", user.ID).Msg("user registered")
	c.JSON(http.StatusCreated, AuthResponse{Status: true, User: userResponse(user), Token: token})
}

// Login handles user login.
// POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("username", user.Username).Msg("user logged in")
	c.JSON(http.StatusOK, AuthResponse{Status: true, User: userResponse(user), Token: token})
}

// Logout clears the user's relay presence.
// GET /api/auth/logout/:id
func (h *AuthHandlers) Logout(c *gin.Context) {
	id := c.Param("id")
	if !h.requireSelf(c, id) {
		return
	}

	h.hub.Disconnect(id)
	c.JSON(http.StatusOK, gin.H{"status": true})
}

// SetAvatar stores the avatar image and marks the profile complete.
// POST /api/auth/setavatar/:id
func (h *AuthHandlers) SetAvatar(c *gin.Context) {
	id := c.Param("id")
	if !h.requireSelf(c, id) {
		return
	}

	var req SetAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.store.SetAvatar(c.Request.Context(), id, req.Image)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", id).Msg("failed to set avatar")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"isSet": user.AvatarSet, "image": user.AvatarImage})
}

// AllUsers returns the contact list: every user except the requester.
// GET /api/auth/allusers/:id
func (h *AuthHandlers) AllUsers(c *gin.Context) {
	id := c.Param("id")
	if !h.requireSelf(c, id) {
		return
	}

	users, err := h.store.ListContacts(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", id).Msg("failed to list contacts")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	contacts := make([]UserResponse, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, UserResponse{
			ID:          u.ID,
			Username:    u.Username,
			AvatarImage: u.AvatarImage,
			AvatarSet:   u.AvatarSet,
		})
	}

	c.JSON(http.StatusOK, contacts)
}

// requireSelf rejects requests where the path id does not match the
// authenticated user.
func (h *AuthHandlers) requireSelf(c *gin.Context, id string) bool {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return false
	}
	if uid != id {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return false
	}
	return true
}
