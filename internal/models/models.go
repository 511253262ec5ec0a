package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Admin        bool      `gorm:"not null;default:false"   json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID    uint      `gorm:"index;not null"              json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BookID    string    `gorm:"index;not null"              json:"book_id"`
	Title     string    `gorm:"not null"                    json:"title"`
	Body      string    `gorm:"not null"                    json:"review"`
	Rating    int       `gorm:"not null"                    json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
