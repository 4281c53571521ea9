package model

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Name         string `json:"name" gorm:"not null"`
	Phone        string `json:"phone" gorm:"index"`
	AvatarURL    string `json:"avatar_url"`

	// Soft delete flag: deactivated users keep their rows because orders
	// and payments reference them.
	IsActive   bool `json:"is_active" gorm:"default:true"`
	IsVerified bool `json:"is_verified" gorm:"default:false"`

	Subscriptions []Subscription `json:"-"`
	Orders        []Order        `json:"-"`
	Payments      []Payment      `json:"-"`
	Addresses     []Address      `json:"-"`
	SizeProfiles  []SizeProfile  `json:"-"`
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":          u.ID,
		"email":       u.Email,
		"name":        u.Name,
		"phone":       u.Phone,
		"avatar_url":  u.AvatarURL,
		"is_verified": u.IsVerified,
		"created_at":  u.CreatedAt,
	}
}
