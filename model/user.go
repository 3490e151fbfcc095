package model

import "time"

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	OrgID        string    `gorm:"not null;index" json:"org_id"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Avatar       string    `json:"avatar"`
}

func (User) TableName() string {
	return "users"
}
