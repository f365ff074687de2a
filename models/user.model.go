package models

import "time"

// User is a storefront account. Accounts created through the external auth
// provider carry its subject in ExternalID and have no password.
type User struct {
	ID           uint      `gorm:"primaryKey" bson:"_id" json:"id"`
	ExternalID   *string   `gorm:"size:128;uniqueIndex" bson:"external_id,omitempty" json:"-"`
	Name         string    `gorm:"size:255" bson:"name" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" bson:"email" json:"email"`
	Phone        string    `gorm:"size:64" bson:"phone" json:"phone,omitempty"`
	PasswordHash string    `gorm:"size:255" bson:"password_hash,omitempty" json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false" bson:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
