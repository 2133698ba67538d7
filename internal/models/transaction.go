package models

import (
	"time"
)

type TransactionKind string

const (
	KindContentSale         TransactionKind = "content_sale"
	KindSubscriptionUpgrade TransactionKind = "subscription_upgrade"
)

type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusPaid    TransactionStatus = "paid"
	StatusFailed  TransactionStatus = "failed"
)

type Plan string

const (
	PlanWeekly  Plan = "weekly"
	PlanMonthly Plan = "monthly"
	PlanAnnual  Plan = "annual"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanWeekly, PlanMonthly, PlanAnnual:
		return true
	}
	return false
}

// Gateway holds the processor-side identifiers of a charge.
type Gateway struct {
	Provider    string     `gorm:"column:provider;size:50;default:abacatepay" json:"provider"`
	PaymentID   string     `gorm:"column:payment_id;size:191;index" json:"paymentId"`
	QRCode      string     `gorm:"column:qr_code;type:text" json:"qrCode"`
	QRCodeImage string     `gorm:"column:qr_code_image;type:longtext" json:"qrCodeImage"`
	ExpiresAt   *time.Time `gorm:"column:expires_at" json:"expiresAt,omitempty"`
}

type Buyer struct {
	Name  string `gorm:"column:name;size:255" json:"name"`
	Email string `gorm:"column:email;size:255" json:"email"`
}

// Transaction is one charge attempt. Amount, fee split, kind and plan are
// frozen at creation; only Status, PaidAt and Gateway change afterwards.
type Transaction struct {
	ID                 string            `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	OwnerID            string            `gorm:"column:owner_id;type:char(36);not null;index" json:"ownerId"`
	ModelID            *string           `gorm:"column:model_id;type:char(36);index" json:"modelId"`
	Kind               TransactionKind   `gorm:"column:kind;size:32;not null;default:content_sale" json:"type"`
	Plan               Plan              `gorm:"column:plan;size:16;not null" json:"plan"`
	Amount             int64             `gorm:"column:amount;not null" json:"amount"`
	PlatformFeePercent int64             `gorm:"column:platform_fee_percent;not null;default:0" json:"platformFeePercent"`
	PlatformFee        int64             `gorm:"column:platform_fee;not null" json:"platformFee"`
	NetAmount          int64             `gorm:"column:net_amount;not null" json:"netAmount"`
	Status             TransactionStatus `gorm:"column:status;size:16;not null;default:pending;index" json:"status"`
	Buyer              Buyer             `gorm:"embedded;embeddedPrefix:buyer_" json:"buyer"`
	Gateway            Gateway           `gorm:"embedded;embeddedPrefix:gateway_" json:"gateway"`
	PaidAt             *time.Time        `gorm:"column:paid_at" json:"paidAt,omitempty"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) IsPaid() bool {
	return t.Status == StatusPaid
}
