package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"newchat/backend/internal/auth"
	"newchat/backend/internal/models"
	"newchat/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// UserService is what UserHandler needs from the account layer.
type UserService interface {
	SignUp(ctx context.Context, nickname, email, password string) (*models.User, error)
	Login(ctx context.Context, login, password string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// UserHandler serves registration, login, logout and the caller's profile.
type UserHandler struct {
	users     UserService
	blacklist auth.TokenBlacklist
	secret    string
	tokenTTL  time.Duration
}

func NewUserHandler(users UserService, blacklist auth.TokenBlacklist, secret string, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{users: users, blacklist: blacklist, secret: secret, tokenTTL: tokenTTL}
}

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Nickname string `json:"nickname" binding:"required" example:"testuser"`
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	// max counts runes; the service also enforces bcrypt's 72-byte limit.
	Password string `json:"password" binding:"required,min=8,max=72" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID       uint   `json:"id" example:"1"`
	Nickname string `json:"nickname" example:"testuser"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID        uint      `json:"id" example:"1"`
	Nickname  string    `json:"nickname" example:"testuser"`
	Email     string    `json:"email" example:"test@example.com"`
	CreatedAt time.Time `json:"created_at"`
}

func newPublicUserResponse(u models.User) PublicUserResponse {
	return PublicUserResponse{ID: u.ID, Nickname: u.Nickname}
}

// endregion

// region --- Auth Handlers ---

// Register godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Nickname or email already exists"
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.SignUp(c.Request.Context(), input.Nickname, input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issueToken(c, http.StatusCreated, user.ID)
}

// Login godoc
// @Summary      Log in a user
// @Description  Authenticates a user with nickname/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Login(c.Request.Context(), input.Login, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issueToken(c, http.StatusOK, user.ID)
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the bearer token used for this request until it expires.
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	token := c.GetString(auth.TokenKey)
	_, exp, err := jwt.ParseToken(token, h.secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	if err := h.blacklist.Revoke(c.Request.Context(), token, time.Until(exp)); err != nil {
		log.Printf("revoke token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke token"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) issueToken(c *gin.Context, status int, userID uint) {
	token, err := jwt.GenerateToken(userID, h.secret, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, TokenResponse{Token: token})
}

// endregion

// GetMe godoc
// @Summary      Get current user's profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, _ := auth.UserID(c)

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PrivateUserResponse{
		ID:        user.ID,
		Nickname:  user.Nickname,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}
