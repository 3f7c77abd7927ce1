package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go-pos-inventory/internal/auth"
	"go-pos-inventory/internal/database"
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Find User in DB
	user, err := h.store.FindUserByUsername(c.Request.Context(), strings.TrimSpace(input.Username))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 3. Verify Password (Bcrypt)
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		h.log(c).WithField("username", user.Username).Warn("Failed login attempt")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 4. Generate JWT Token
	token, err := h.tokens.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
	})
}

// Register is the bootstrap signup, only routed when registration is allowed.
// The first account becomes the admin, every later one a cashier.
func (h *Handler) Register(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	count, err := h.store.CountUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	role := models.RoleCashier
	if count == 0 {
		role = models.RoleAdmin
	}

	user, err := h.createUser(c, input.Username, input.Password, role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "user": user})
}

// --- POST: /api/users (admin creates staff accounts) ---
func (h *Handler) CreateUser(c *gin.Context) {
	var input CreateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	role := input.Role
	if role == "" {
		role = models.RoleCashier
	}
	if role != models.RoleCashier && role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be admin or cashier"})
		return
	}

	user, err := h.createUser(c, input.Username, input.Password, role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) createUser(c *gin.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, database.ErrInvalidUser
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: hashed, Role: role}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		return nil, err
	}
	h.log(c).WithFields(logrus.Fields{"username": username, "role": role}).Info("User created")
	return user, nil
}

// --- GET: /api/me ---
func (h *Handler) Me(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), middleware.CurrentActor(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
