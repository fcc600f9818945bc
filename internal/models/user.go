// Package models contains the domain types shared by the client SDK and the
// local stub backend. JSON tags follow the wire contract of the GIA backend
// (camelCase); gorm tags let the stub persist the same structs.
package models

import "time"

// Roles recognized by the backend.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an account or waitlist subscriber. Email-only records
// (newsletter signups without a password) are valid users with RoleUser.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `gorm:"not null;default:USER" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session is the persisted authentication record. It is owned exclusively by
// the session store and written in a single atomic update.
type Session struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Valid reports whether the record is complete enough to authenticate with.
// A session missing the user, the user ID, the role, or the access token is
// treated as logged out.
func (s *Session) Valid() bool {
	return s != nil && s.User != nil && s.User.ID != 0 && s.User.Role != "" && s.AccessToken != ""
}

// Subscriber is a waitlist/newsletter signup request.
type Subscriber struct {
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}
