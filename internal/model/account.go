package model

import "time"

type UserRole string

const (
	UserRoleReviewer UserRole = "reviewer"
	UserRoleSeller   UserRole = "seller"
	UserRoleAdmin    UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Mobile    string     `json:"mobile" db:"mobile"`
	Role      UserRole   `json:"role" db:"role"`
	Status    UserStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// AdminSession is an authenticated back-office session. The CSRF token is
// issued alongside the session and must accompany every mutating request.
type AdminSession struct {
	Token     string    `json:"-" db:"token"`
	AdminID   int64     `json:"admin_id" db:"admin_id"`
	CSRFToken string    `json:"-" db:"csrf_token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}
