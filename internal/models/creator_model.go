package models

import (
	"time"
)

type PricingTier struct {
	Price   int64 `gorm:"column:price;not null;default:0" json:"price"`
	Enabled bool  `gorm:"column:enabled;not null;default:false" json:"enabled"`
}

type ModelStats struct {
	Clicks       int64 `gorm:"column:clicks;not null;default:0" json:"clicks"`
	Sales        int64 `gorm:"column:sales;not null;default:0" json:"sales"`
	TotalRevenue int64 `gorm:"column:total_revenue;not null;default:0" json:"totalRevenue"`
}

// CreatorModel is a creator's storefront with its pricing tiers.
type CreatorModel struct {
	ID          string      `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	OwnerID     string      `gorm:"column:owner_id;type:char(36);not null;index" json:"ownerId"`
	Username    string      `gorm:"column:username;size:100;not null" json:"username"`
	DisplayName string      `gorm:"column:display_name;size:255;not null" json:"displayName"`
	Weekly      PricingTier `gorm:"embedded;embeddedPrefix:weekly_" json:"weekly"`
	Monthly     PricingTier `gorm:"embedded;embeddedPrefix:monthly_" json:"monthly"`
	Annual      PricingTier `gorm:"embedded;embeddedPrefix:annual_" json:"annual"`
	Stats       ModelStats  `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	IsActive    bool        `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (CreatorModel) TableName() string {
	return "creator_models"
}

// Pricing returns the tier configured for plan and whether plan is known.
func (m *CreatorModel) Pricing(plan Plan) (PricingTier, bool) {
	switch plan {
	case PlanWeekly:
		return m.Weekly, true
	case PlanMonthly:
		return m.Monthly, true
	case PlanAnnual:
		return m.Annual, true
	}
	return PricingTier{}, false
}
