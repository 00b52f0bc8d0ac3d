package model

import "time"

// AuditEvent records portal activity (signup, login, logout, feedback).
// Events travel through the message queue and are persisted asynchronously,
// so a lost event never fails the request that produced it.
type AuditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Username  string    `gorm:"size:64;index" json:"username"`
	Action    string    `gorm:"size:32;not null;index" json:"action"`
	Detail    string    `gorm:"size:255" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
