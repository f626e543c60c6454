package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	FirstName string    `gorm:"size:150" json:"firstName"`
	LastName  string    `gorm:"size:150" json:"lastName"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	CreatedAt time.Time `json:"dateJoined"`
	UpdatedAt time.Time `json:"updated"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type SignupData struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

type LoginData struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}
