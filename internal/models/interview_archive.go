package models

import (
	"time"

	"gorm.io/datatypes"
)

// Archive entry kinds.
const (
	ArchiveKindTurn     = "turn"
	ArchiveKindAnalysis = "analysis"
	ArchiveKindSummary  = "summary"
)

// InterviewArchiveEntry is an audit record of something that happened in a session. The archive
// is write-mostly and is never used to restore in-memory sessions.
type InterviewArchiveEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID string         `gorm:"size:128;index" json:"session_id"`
	Kind      string         `gorm:"size:32;not null" json:"kind"`
	Role      string         `gorm:"size:32" json:"role,omitempty"`
	Content   string         `gorm:"type:text" json:"content,omitempty"`
	Language  string         `gorm:"size:32" json:"language,omitempty"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
