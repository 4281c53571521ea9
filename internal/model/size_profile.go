package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SizeProfile is a named sock-size record. Users can keep several, e.g.
// one for themselves and one per family member.
type SizeProfile struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"index;not null"`
	Name   string `json:"name" gorm:"size:50;not null"`

	ShoeSize string `json:"shoe_size" gorm:"size:10"`
	// S/M/L
	SockSize          string  `json:"sock_size" gorm:"size:10"`
	FootLength        float64 `json:"foot_length"`
	CalfCircumference float64 `json:"calf_circumference"`

	// Color/material preferences.
	Preferences datatypes.JSON `json:"preferences"`
	IsDefault   bool           `json:"is_default" gorm:"default:false"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
