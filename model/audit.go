package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records one inventory entry-point invocation: the action,
// the acting character, the request parameters, and the outcome. An
// empty Outcome marks a committed operation.
type AuditLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID   string         `gorm:"index:idx_audit_trace;size:36;not null" json:"trace_id"`
	CharID    *int64         `gorm:"index:idx_audit_char" json:"char_id"`
	AccountID *int64         `json:"account_id"`
	CharName  string         `gorm:"size:32" json:"char_name"`
	Action    string         `gorm:"size:64;not null" json:"action"`
	Request   datatypes.JSON `json:"request"`
	Outcome   string         `gorm:"size:128" json:"outcome"`
	Dimension int            `json:"dimension"`
	CreatedAt time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
