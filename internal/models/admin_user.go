package models

import "time"

// AdminUser can sign in to the back office.
type AdminUser struct {
	Base `bson:",inline"`

	Username     string     `bson:"username" json:"username"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	CreatedAt    time.Time  `bson:"created_at" json:"createdAt"`
	LastLoginAt  *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
}
