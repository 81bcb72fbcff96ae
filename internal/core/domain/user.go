package domain

import "time"

const (
	// RoleAdmin may manage packages and drive the scheduler.
	RoleAdmin = "admin"
	// RoleViewer has read-only access to the dashboard.
	RoleViewer = "viewer"
)

// User models an authenticated actor of the command center.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
