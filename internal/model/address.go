package model

import "gorm.io/gorm"

type Address struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"index;not null"`

	Name     string `json:"name" gorm:"size:100;not null"`
	Phone    string `json:"phone" gorm:"size:20;not null"`
	Province string `json:"province" gorm:"size:50;not null"`
	City     string `json:"city" gorm:"size:50;not null"`
	District string `json:"district" gorm:"size:50;not null"`
	Address  string `json:"address" gorm:"size:500;not null"`
	ZipCode  string `json:"zip_code" gorm:"size:10"`

	// At most one default per user, enforced by the address service
	// (clear-then-set inside one transaction).
	IsDefault bool `json:"is_default" gorm:"default:false"`

	// Free-text label, e.g. "home", "office".
	Tag string `json:"tag" gorm:"size:20"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// Snapshot returns the address as plain data for embedding into orders.
func (a *Address) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"name":     a.Name,
		"phone":    a.Phone,
		"province": a.Province,
		"city":     a.City,
		"district": a.District,
		"address":  a.Address,
		"zip_code": a.ZipCode,
	}
}
