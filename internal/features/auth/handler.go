// ================== internal/features/auth/handler.go ==================
package auth

// Swagger API metadata is defined globally in cmd/api/main.go

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xyz-asif/lostfound/internal/pkg/logger"
	"github.com/xyz-asif/lostfound/internal/pkg/response"
	appErrors "github.com/xyz-asif/lostfound/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid username or password"

// UserStore is the persistence the handler needs
type UserStore interface {
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateToken(userID, username string) (string, time.Time, error)
}

type Handler struct {
	users      UserStore
	tokens     TokenIssuer
	bcryptCost int
}

func NewHandler(users UserStore, tokens TokenIssuer, bcryptCost int) *Handler {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Handler{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Register godoc
// @Summary Register a new user
// @Description Create an account with a unique username and a password of at least 6 characters
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "User registration data"
// @Success 201 {object} response.APIResponse{data=PublicUser}
// @Failure 400 {object} response.APIResponse
// @Failure 429 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := ValidateRegister(&req); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	existing, err := h.users.FindByUsername(ctx, req.Username)
	if err != nil {
		logger.Error("register lookup failed", zap.Error(err))
		response.DatabaseError(c, "Server error")
		return
	}
	if existing != nil {
		response.BadRequest(c, "Username already taken", "USERNAME_TAKEN")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		// multi-byte passwords can pass max=72 runes and still exceed 72 bytes
		response.ValidationFailed(c, "password must be at most 72 bytes")
		return
	}
	if err != nil {
		logger.Error("password hashing failed", zap.Error(err))
		response.InternalServerError(c, "Failed to process password")
		return
	}

	user := &User{Username: req.Username, Password: string(hashed)}
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, appErrors.ErrDuplicate) {
			response.BadRequest(c, "Username already taken", "USERNAME_TAKEN")
			return
		}
		logger.Error("register insert failed", zap.Error(err))
		response.DatabaseError(c, "Server error")
		return
	}

	logger.Info("user registered", zap.String("userID", user.ID.Hex()), zap.String("username", user.Username))
	response.Created(c, user.ToPublic(), "User registered successfully")
}

// Login godoc
// @Summary Login user
// @Description Authenticate with username and password and receive a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "User login credentials"
// @Success 200 {object} response.APIResponse{data=AuthResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 429 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	user, err := h.users.FindByUsername(c.Request.Context(), req.Username)
	if err != nil {
		logger.Error("login lookup failed", zap.Error(err))
		response.DatabaseError(c, "Server error")
		return
	}
	if user == nil {
		response.BadRequest(c, invalidCredentials, "INVALID_CREDENTIALS")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		response.BadRequest(c, invalidCredentials, "INVALID_CREDENTIALS")
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(user.ID.Hex(), user.Username)
	if err != nil {
		logger.Error("token signing failed", zap.Error(err))
		response.InternalServerError(c, "Failed to generate token")
		return
	}

	response.Success(c, AuthResponse{
		Token:     token,
		Username:  user.Username,
		ExpiresAt: expiresAt,
	})
}

// Me godoc
// @Summary Get current user
// @Description Get the account of the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=User}
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Invalid token", "INVALID_TOKEN")
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		logger.Error("me lookup failed", zap.Error(err))
		response.DatabaseError(c, "Server error")
		return
	}
	if user == nil {
		response.NotFound(c, "User not found", "USER_NOT_FOUND")
		return
	}

	response.Success(c, user)
}
