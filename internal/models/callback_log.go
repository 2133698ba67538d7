package models

import (
	"time"
)

// CallbackLog records one webhook delivery and how it was handled.
type CallbackLog struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider      string    `gorm:"column:provider;size:50;not null" json:"provider"`
	Event         string    `gorm:"column:event;size:100" json:"event"`
	PaymentID     string    `gorm:"column:payment_id;size:191;index" json:"payment_id"`
	TransactionID string    `gorm:"column:transaction_id;size:36" json:"transaction_id"`
	Request       string    `gorm:"column:request;type:longtext" json:"request"`
	Response      string    `gorm:"column:response;type:text" json:"response"`
	Status        int       `gorm:"column:status;default:0" json:"status"` // 1 when the delivery was handled
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CallbackLog) TableName() string {
	return "callback_logs"
}
