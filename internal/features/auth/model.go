package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered user in the system
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RegisterRequest represents the payload for creating an account.
// bcrypt only reads the first 72 bytes, so longer passwords are refused.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20" example:"alice"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"secret1"`
}

// LoginRequest represents the payload for logging in
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=20" example:"alice"`
	Password string `json:"password" binding:"required,max=72" example:"secret1"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username" example:"alice"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PublicUser is the reporter summary attached to items
type PublicUser struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
}

// ToPublic returns the fields safe for public display
func (u *User) ToPublic() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}
