package dto

import (
	"encoding/json"
	"time"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/models"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/pkg/ai"
)

// Inbound event kinds.
const (
	EventProblemDescription = "problem_description"
	EventExplanation        = "explanation"
	EventCodeSubmission     = "code_submission"
	EventMessage            = "message"
	EventEndSession         = "end_session"
)

// Outbound event kinds.
const (
	EventSystem         = "system"
	EventAIResponse     = "ai_response"
	EventError          = "error"
	EventCodeAnalysis   = "code_analysis"
	EventSessionSummary = "session_summary"
)

// SessionLookup validates a caller supplied session identifier.
type SessionLookup struct {
	SessionID string `validate:"required,max=128,printascii"`
}

// InboundEvent is a client frame received over the interview websocket.
type InboundEvent struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// OutboundEvent is a server frame sent over the interview websocket.
type OutboundEvent struct {
	Type        string             `json:"type"`
	Message     string             `json:"message,omitempty"`
	Analysis    *ai.AnalysisResult `json:"analysis,omitempty"`
	Summary     string             `json:"summary,omitempty"`
	SessionData *SessionData       `json:"session_data,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// SessionData is the metadata attached to a session summary.
type SessionData struct {
	Submissions int       `json:"submissions"`
	Duration    string    `json:"duration"`
	Timestamp   time.Time `json:"timestamp"`
}

// SessionResponse is the inspection view of a stored session.
type SessionResponse struct {
	models.SessionSnapshot
	SubmissionCount int `json:"submission_count"`
	TurnCount       int `json:"turn_count"`
}

// NewSessionResponse converts a snapshot into the inspection DTO.
func NewSessionResponse(snapshot models.SessionSnapshot) SessionResponse {
	return SessionResponse{
		SessionSnapshot: snapshot,
		SubmissionCount: len(snapshot.Submissions),
		TurnCount:       len(snapshot.Transcript),
	}
}

// ArchiveEntryResponse is the serialized representation of an archived session record.
type ArchiveEntryResponse struct {
	ID        uint            `json:"id"`
	Kind      string          `json:"kind"`
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	Language  string          `json:"language,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewArchiveEntryResponseSlice converts archive models into DTOs.
func NewArchiveEntryResponseSlice(entries []models.InterviewArchiveEntry) []ArchiveEntryResponse {
	out := make([]ArchiveEntryResponse, 0, len(entries))
	for _, entry := range entries {
		item := ArchiveEntryResponse{
			ID:        entry.ID,
			Kind:      entry.Kind,
			Role:      entry.Role,
			Content:   entry.Content,
			Language:  entry.Language,
			CreatedAt: entry.CreatedAt,
		}
		if len(entry.Payload) > 0 {
			item.Payload = json.RawMessage(entry.Payload)
		}
		out = append(out, item)
	}
	return out
}
