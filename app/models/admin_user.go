package models

import "time"

// AdminUser is a back-office account. Passwords are stored as bcrypt hashes
// only; there is no self-service registration, accounts are seeded.
type AdminUser struct {
	ID           uint      `gorm:"primaryKey"                    json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex"  json:"username"`
	PasswordHash string    `gorm:"size:255;not null"             json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
