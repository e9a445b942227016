// internal/domain/user.go
package domain

import "time"

// User represents a user in the wallet system.
type User struct {
	ID        int64      `db:"id" json:"id"`                 // Primary key, BIGSERIAL in DB
	Username  string     `db:"username" json:"username"`     // Unique username
	CreatedAt time.Time  `db:"created_at" json:"created_at"` // Timestamp of creation
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at"` // Timestamp of last update, NULL until the first update
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at"` // Set when the user is deactivated
}

// NewUser creates a new User instance.
func NewUser(username string) *User {
	return &User{
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
}

// Active reports whether the user has not been deactivated.
func (u *User) Active() bool {
	return u.DeletedAt == nil
}
