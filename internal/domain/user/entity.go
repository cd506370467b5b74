// internal/domain/user/entity.go
package user

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is a back-office operator. Admins see every admin-scoped page; plain
// users are restricted to their customer-management panel.
type User struct {
	ID           string       `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Email        string       `json:"email" db:"email"`
	PasswordHash string       `json:"-" db:"password_hash"`
	Role         Role         `json:"role" db:"role"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	LastLogin    sql.NullTime `json:"-" db:"last_login"`
}

// Public is the wire shape without credential material.
type Public struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) Public() Public {
	p := Public{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
	if u.LastLogin.Valid {
		t := u.LastLogin.Time
		p.LastLogin = &t
	}
	return p
}
