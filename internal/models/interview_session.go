package models

import (
	"sync"
	"time"
)

// Transcript roles.
const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// Turn is one role-tagged unit of conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CodeSubmission records one accepted code submission.
type CodeSubmission struct {
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	SubmittedAt time.Time `json:"timestamp"`
}

// SessionSnapshot is a point-in-time copy of a session, safe to serialise and share.
type SessionSnapshot struct {
	ID          string           `json:"id"`
	Problem     *string          `json:"problem"`
	Transcript  []Turn           `json:"conversation_history"`
	Submissions []CodeSubmission `json:"code_submissions"`
	StartedAt   time.Time        `json:"start_time"`
	EndedAt     *time.Time       `json:"end_time,omitempty"`
}

// InterviewSession holds the accumulated state of one interview identifier.
//
// Data accessors are safe for concurrent use. Callers applying an inbound event must hold the
// event lock (see Serialize) for the whole event so that every connection sharing the
// identifier applies its events in one total order.
type InterviewSession struct {
	id string

	eventMu sync.Mutex

	mu          sync.RWMutex
	problem     *string
	transcript  []Turn
	submissions []CodeSubmission
	startedAt   time.Time
	endedAt     *time.Time
}

// NewInterviewSession creates an empty session started at the given time.
func NewInterviewSession(id string, startedAt time.Time) *InterviewSession {
	return &InterviewSession{
		id:        id,
		startedAt: startedAt,
	}
}

// ID returns the caller-supplied identifier.
func (s *InterviewSession) ID() string {
	return s.id
}

// Serialize blocks until the caller owns the session's event lock and returns the release func.
func (s *InterviewSession) Serialize() func() {
	s.eventMu.Lock()
	return s.eventMu.Unlock
}

// SetProblem records the problem statement. Only the first call has an effect; it reports
// whether the problem was stored.
func (s *InterviewSession) SetProblem(problem string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.problem != nil {
		return false
	}
	s.problem = &problem
	return true
}

// Problem returns the problem statement, if one was set.
func (s *InterviewSession) Problem() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.problem == nil {
		return "", false
	}
	return *s.problem, true
}

// AppendTurn adds a turn to the end of the transcript.
func (s *InterviewSession) AppendTurn(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, Turn{Role: role, Content: content})
}

// Transcript returns a copy of the transcript, oldest turn first.
func (s *InterviewSession) Transcript() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// AddSubmission appends a code submission and returns the new submission count.
func (s *InterviewSession) AddSubmission(submission CodeSubmission) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submissions = append(s.submissions, submission)
	return len(s.submissions)
}

// SubmissionCount returns the number of accepted submissions.
func (s *InterviewSession) SubmissionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.submissions)
}

// StartedAt returns the creation time of the session.
func (s *InterviewSession) StartedAt() time.Time {
	return s.startedAt
}

// MarkEnded records that a summary was delivered for the session.
func (s *InterviewSession) MarkEnded(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.endedAt = &at
}

// Ended reports whether the session has been closed with a summary.
func (s *InterviewSession) Ended() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.endedAt != nil
}

// Snapshot copies the session state.
func (s *InterviewSession) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := SessionSnapshot{
		ID:          s.id,
		Transcript:  make([]Turn, len(s.transcript)),
		Submissions: make([]CodeSubmission, len(s.submissions)),
		StartedAt:   s.startedAt,
	}
	copy(snapshot.Transcript, s.transcript)
	copy(snapshot.Submissions, s.submissions)
	if s.problem != nil {
		problem := *s.problem
		snapshot.Problem = &problem
	}
	if s.endedAt != nil {
		ended := *s.endedAt
		snapshot.EndedAt = &ended
	}
	return snapshot
}
