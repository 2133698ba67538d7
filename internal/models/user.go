package models

import (
	"time"
)

type UserPlan string

const (
	UserPlanFreemium UserPlan = "freemium"
	UserPlanPro      UserPlan = "pro"
)

// Balance amounts are minor currency units.
type Balance struct {
	Available int64 `gorm:"column:available;not null;default:0" json:"available"`
	Pending   int64 `gorm:"column:pending;not null;default:0" json:"pending"`
}

type User struct {
	ID             string     `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Email          string     `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Name           string     `gorm:"column:name;size:255;not null" json:"name"`
	LastName       string     `gorm:"column:last_name;size:255" json:"lastName"`
	Whatsapp       string     `gorm:"column:whatsapp;size:50" json:"whatsapp"`
	Plan           UserPlan   `gorm:"column:plan;size:16;not null;default:freemium" json:"plan"`
	PlanExpiration *time.Time `gorm:"column:plan_expiration" json:"planExpiration"`
	Balance        Balance    `gorm:"embedded;embeddedPrefix:balance_" json:"balance"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// HasActivePro reports whether the user holds a pro plan that has not expired at now.
func (u *User) HasActivePro(now time.Time) bool {
	return u.Plan == UserPlanPro && u.PlanExpiration != nil && u.PlanExpiration.After(now)
}
