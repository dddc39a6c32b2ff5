package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/dto"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/models"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/repository"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/pkg/ai"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
		goleak.IgnoreTopFunction("github.com/alicebob/miniredis/v2/server.(*Server).servePeer"),
	)
}

var testStart = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakeConn struct {
	inbound    chan []byte
	events     chan dto.OutboundEvent
	closed     chan struct{}
	closeOnce  sync.Once
	writeErr   error
	mu         sync.Mutex
	closeFrame []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		events:  make(chan dto.OutboundEvent, 64),
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case payload, ok := <-f.inbound:
		if !ok {
			return 0, nil, io.EOF
		}
		return websocket.TextMessage, payload, nil
	case <-f.closed:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	event, ok := v.(dto.OutboundEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", v)
	}
	f.events <- event
	return nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	if messageType == websocket.CloseMessage {
		f.mu.Lock()
		f.closeFrame = data
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) send(t *testing.T, event dto.InboundEvent) {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	f.inbound <- payload
}

func (f *fakeConn) next(t *testing.T) dto.OutboundEvent {
	t.Helper()
	select {
	case event := <-f.events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound event")
		return dto.OutboundEvent{}
	}
}

func (f *fakeConn) expectNoEvent(t *testing.T) {
	t.Helper()
	select {
	case event := <-f.events:
		t.Fatalf("unexpected outbound event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

type scriptedReply struct {
	text string
	err  error
}

type scriptedCompleter struct {
	mu       sync.Mutex
	replies  []scriptedReply
	requests []ai.CompletionRequest
}

func (s *scriptedCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return "", ai.ErrBackendUnavailable
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply.text, reply.err
}

func (s *scriptedCompleter) recorded() []ai.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ai.CompletionRequest(nil), s.requests...)
}

// echoCompleter answers with the last transcript message.
type echoCompleter struct{}

func (echoCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	return "re: " + req.Messages[len(req.Messages)-1].Content, nil
}

type blockingCompleter struct {
	started chan struct{}
	err     chan error
}

func (b *blockingCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	close(b.started)
	<-ctx.Done()
	b.err <- ctx.Err()
	return "", ctx.Err()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(ctx context.Context, sessionID string, event dto.OutboundEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sessionID+"/"+event.Type)
	return nil
}

type serviceFixture struct {
	svc      InterviewService
	sessions repository.SessionRepository
	clock    *testClock
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newServiceFixture(completer ai.Completer, deps InterviewDependencies, policy string) serviceFixture {
	clock := &testClock{now: testStart}
	sessions := repository.NewSessionRepositoryWithClock(clock.Now)
	svc := NewInterviewService(sessions, completer, deps, InterviewConfig{
		CompletionTimeout: time.Second,
		ReusePolicy:       policy,
		Now:               clock.Now,
	}, testLogger())
	return serviceFixture{svc: svc, sessions: sessions, clock: clock}
}

func (f serviceFixture) connect(t *testing.T, sessionID string) (*fakeConn, <-chan struct{}) {
	t.Helper()
	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.svc.ServeConnection(conn, InterviewConnectionOptions{SessionID: sessionID, CorrelationID: "test"})
	}()

	welcome := conn.next(t)
	require.Equal(t, dto.EventSystem, welcome.Type)
	require.Equal(t, welcomeMessage, welcome.Message)
	return conn, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not terminate")
	}
}

func hangUp(t *testing.T, conn *fakeConn, done <-chan struct{}) {
	t.Helper()
	close(conn.inbound)
	waitDone(t, done)
}

const structuredReply = "Here is my review.\n```json\n" +
	`{"technical_feedback":"Handles duplicates correctly.","complexity_analysis":"O(n) time, O(n) space.","code_quality":"Readable.","follow_up_question":"How would you handle a sorted input?","score":8}` +
	"\n```"

func TestInterviewServiceFullSession(t *testing.T) {
	completer := &scriptedCompleter{replies: []scriptedReply{
		{text: "A hash map sounds right. Go ahead and code it."},
		{text: structuredReply},
		{text: "Strong session overall."},
	}}
	fixture := newServiceFixture(completer, InterviewDependencies{}, ReusePolicyResume)
	conn, done := fixture.connect(t, "full")

	conn.send(t, dto.InboundEvent{Type: dto.EventProblemDescription, Content: "Two Sum"})
	ack := conn.next(t)
	require.Equal(t, dto.EventAIResponse, ack.Type)
	require.Equal(t, problemAcknowledgement, ack.Message)

	conn.send(t, dto.InboundEvent{Type: dto.EventExplanation, Content: "use a hash map"})
	feedback := conn.next(t)
	require.Equal(t, dto.EventAIResponse, feedback.Type)
	require.Equal(t, "A hash map sounds right. Go ahead and code it.", feedback.Message)

	conn.send(t, dto.InboundEvent{Type: dto.EventCodeSubmission, Code: "def two_sum(): pass", Language: "python"})
	analyzing := conn.next(t)
	require.Equal(t, dto.EventSystem, analyzing.Type)
	require.Equal(t, analyzingMessage, analyzing.Message)

	analysis := conn.next(t)
	require.Equal(t, dto.EventCodeAnalysis, analysis.Type)
	require.NotNil(t, analysis.Analysis)
	require.Equal(t, ai.AnalysisResult{
		TechnicalFeedback:  "Handles duplicates correctly.",
		ComplexityAnalysis: "O(n) time, O(n) space.",
		CodeQuality:        "Readable.",
		FollowUpQuestion:   "How would you handle a sorted input?",
		Score:              8,
	}, *analysis.Analysis)

	followUp := conn.next(t)
	require.Equal(t, dto.EventAIResponse, followUp.Type)
	require.Equal(t, "How would you handle a sorted input?", followUp.Message)

	fixture.clock.Advance(90 * time.Second)
	conn.send(t, dto.InboundEvent{Type: dto.EventEndSession})
	summary := conn.next(t)
	require.Equal(t, dto.EventSessionSummary, summary.Type)
	require.Equal(t, "Strong session overall.", summary.Summary)
	require.NotNil(t, summary.SessionData)
	require.Equal(t, 1, summary.SessionData.Submissions)
	require.Equal(t, "1m30s", summary.SessionData.Duration)

	waitDone(t, done)
	require.True(t, conn.isClosed())

	session, ok := fixture.sessions.Get("full")
	require.True(t, ok)
	require.True(t, session.Ended())
	require.Equal(t, []models.Turn{
		{Role: models.TurnRoleUser, Content: "Problem: Two Sum"},
		{Role: models.TurnRoleUser, Content: "My approach: use a hash map"},
		{Role: models.TurnRoleAssistant, Content: "A hash map sounds right. Go ahead and code it."},
	}, session.Transcript())

	requests := completer.recorded()
	require.Len(t, requests, 3)
	require.Equal(t, explanationSystemPrompt, requests[0].System)
	require.Len(t, requests[0].Messages, 2)
	require.Equal(t, conversationMaxTokens, requests[0].MaxTokens)

	require.Equal(t, analysisSystemPrompt, requests[1].System)
	require.Equal(t, analysisMaxTokens, requests[1].MaxTokens)
	require.InDelta(t, analysisTemperature, requests[1].Temperature, 0.001)
	lastAnalysis := requests[1].Messages[len(requests[1].Messages)-1].Content
	require.Contains(t, lastAnalysis, "Problem: Two Sum")
	require.Contains(t, lastAnalysis, "def two_sum(): pass")

	lastSummary := requests[2].Messages[len(requests[2].Messages)-1].Content
	require.Contains(t, lastSummary, "Code submissions: 1")
	require.Equal(t, summaryMaxTokens, requests[2].MaxTokens)
}

func TestInterviewServiceRejectsEmptySubmission(t *testing.T) {
	completer := &scriptedCompleter{}
	fixture := newServiceFixture(completer, InterviewDependencies{}, ReusePolicyResume)
	conn, done := fixture.connect(t, "empty")

	conn.send(t, dto.InboundEvent{Type: dto.EventCodeSubmission, Code: "  \n\t", Language: "go"})
	event := conn.next(t)
	require.Equal(t, dto.EventError, event.Type)
	require.Equal(t, emptySubmissionMessage, event.Message)

	hangUp(t, conn, done)

	session, ok := fixture.sessions.Get("empty")
	require.True(t, ok)
	require.Zero(t, session.SubmissionCount())
	require.Empty(t, completer.recorded())
}

func TestInterviewServiceDefaultsSubmissionLanguage(t *testing.T) {
	completer := &scriptedCompleter{replies: []scriptedReply{{text: "No JSON here, just thoughts."}}}
	fixture := newServiceFixture(completer, InterviewDependencies{}, ReusePolicyResume)
	conn, done := fixture.connect(t, "lang")

	conn.send(t, dto.InboundEvent{Type: dto.EventCodeSubmission, Code: "print(1)"})
	require.Equal(t, dto.EventSystem, conn.next(t).Type)
	analysis := conn.next(t)
	require.Equal(t, ai.ProseAnalysis("No JSON here, just thoughts."), *analysis.Analysis)
	require.Equal(t, ai.DefaultFollowUp, conn.next(t).Message)

	hangUp(t, conn, done)

	snapshot := mustSession(t, fixture.sessions, "lang").Snapshot()
	require.Len(t, snapshot.Submissions, 1)
	require.Equal(t, defaultLanguage, snapshot.Submissions[0].Language)
	require.Nil(t, snapshot.Problem)
	require.Contains(t, completer.recorded()[0].Messages[0].Content, "Problem: "+defaultProblemPlaceholder)
}

func TestInterviewServiceIgnoresUnknownEvents(t *testing.T) {
	fixture := newServiceFixture(echoCompleter{}, InterviewDependencies{}, ReusePolicyResume)
	conn, done := fixture.connect(t, "unknown")

	conn.send(t, dto.InboundEvent{Type: "ping", Content: "hello?"})
	conn.expectNoEvent(t)

	conn.send(t, dto.InboundEvent{Type: dto.EventMessage, Content: "still there?"})
	reply := conn.next(t)
	require.Equal(t, dto.EventAIResponse, reply.Type)
	require.Equal(t, "re: still there?", reply.Message)

	hangUp(t, conn, done)
	require.Len(t, mustSession(t, fixture.sessions, "unknown").Transcript(), 2)
}

func TestInterviewServiceTerminatesOnMalformedFrame(t *testing.T) {
	fixture := newServiceFixture(echoCompleter{}, InterviewDependencies{}, ReusePolicyResume)
	conn, done := fixture.connect(t, "malformed")

	conn.inbound <- []byte("{not json")
	event := conn.next(t)
	require.Equal(t, dto.EventError, event.Type)
	require.Equal(t, genericErrorMessage, event.Message)

	waitDone(t, done)
	require.True(t, conn.isClosed())

	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Equal(t, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"), conn.closeFrame)
}

func TestInterviewServiceDegradedBackend(t *testing.T) {
	fixture := newServiceFixture(ai.UnavailableCompleter{Reason: "no key"}, InterviewDependencies{}, ReusePolicyResume)
	conn, done := fixture.connect(t, "degraded")

	conn.send(t, dto.InboundEvent{Type: dto.EventMessage, Content: "hello"})
	failure := conn.next(t)
	require.Equal(t, dto.EventError, failure.Type)
	require.Equal(t, backendRetryMessage, failure.Message)

	conn.send(t, dto.InboundEvent{Type: dto.EventExplanation, Content: "brute force"})
	require.Equal(t, backendRetryMessage, conn.next(t).Message)

	conn.send(t, dto.InboundEvent{Type: dto.EventCodeSubmission, Code: "x = 1", Language: "python"})
	require.Equal(t, analyzingMessage, conn.next(t).Message)
	analysis := conn.next(t)
	require.Equal(t, dto.EventCodeAnalysis, analysis.Type)
	require.Equal(t, ai.DegradedAnalysis(), *analysis.Analysis)
	require.Zero(t, analysis.Analysis.Score)
	require.Equal(t, ai.DegradedAnalysis().FollowUpQuestion, conn.next(t).Message)

	conn.send(t, dto.InboundEvent{Type: dto.EventEndSession})
	summary := conn.next(t)
	require.Equal(t, dto.EventSessionSummary, summary.Type)
	require.Equal(t, fallbackSummary, summary.Summary)
	waitDone(t, done)

	turns := mustSession(t, fixture.sessions, "degraded").Transcript()
	require.Equal(t, []models.Turn{
		{Role: models.TurnRoleUser, Content: "hello"},
		{Role: models.TurnRoleUser, Content: "My approach: brute force"},
	}, turns)
}

func TestInterviewServiceResumesAcrossReconnect(t *testing.T) {
	completer := &scriptedCompleter{replies: []scriptedReply{{text: structuredReply}}}
	fixture := newServiceFixture(completer, InterviewDependencies{}, ReusePolicyResume)

	first, done := fixture.connect(t, "resume")
	first.send(t, dto.InboundEvent{Type: dto.EventProblemDescription, Content: "Reverse a list"})
	require.Equal(t, problemAcknowledgement, first.next(t).Message)
	hangUp(t, first, done)

	second, done := fixture.connect(t, "resume")
	second.send(t, dto.InboundEvent{Type: dto.EventCodeSubmission, Code: "xs[::-1]", Language: "python"})
	require.Equal(t, analyzingMessage, second.next(t).Message)
	require.Equal(t, dto.EventCodeAnalysis, second.next(t).Type)
	second.next(t)
	hangUp(t, second, done)

	request := completer.recorded()[0]
	require.Equal(t, "Problem: Reverse a list", request.Messages[0].Content)
	require.Contains(t, request.Messages[len(request.Messages)-1].Content, "Problem: Reverse a list")
	require.Equal(t, 1, fixture.sessions.Count())
}

func TestInterviewServiceReusePolicies(t *testing.T) {
	run := func(t *testing.T, policy string) *models.InterviewSession {
		completer := &scriptedCompleter{replies: []scriptedReply{{text: "bye"}}}
		fixture := newServiceFixture(completer, InterviewDependencies{}, policy)

		conn, done := fixture.connect(t, "again")
		conn.send(t, dto.InboundEvent{Type: dto.EventProblemDescription, Content: "LRU cache"})
		conn.next(t)
		conn.send(t, dto.InboundEvent{Type: dto.EventEndSession})
		require.Equal(t, dto.EventSessionSummary, conn.next(t).Type)
		waitDone(t, done)

		conn, done = fixture.connect(t, "again")
		hangUp(t, conn, done)
		return mustSession(t, fixture.sessions, "again")
	}

	t.Run("resume keeps ended session", func(t *testing.T) {
		session := run(t, ReusePolicyResume)
		problem, ok := session.Problem()
		require.True(t, ok)
		require.Equal(t, "LRU cache", problem)
		require.True(t, session.Ended())
	})

	t.Run("reset replaces ended session", func(t *testing.T) {
		session := run(t, ReusePolicyReset)
		_, ok := session.Problem()
		require.False(t, ok)
		require.False(t, session.Ended())
		require.Empty(t, session.Transcript())
	})
}

func TestInterviewServiceSerializesConnectionsSharingAnIdentifier(t *testing.T) {
	fixture := newServiceFixture(echoCompleter{}, InterviewDependencies{}, ReusePolicyResume)
	const perConnection = 5

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b"} {
		conn, done := fixture.connect(t, "shared")
		for i := 0; i < perConnection; i++ {
			conn.send(t, dto.InboundEvent{Type: dto.EventMessage, Content: fmt.Sprintf("%s-%d", name, i)})
		}

		wg.Add(1)
		go func(name string, conn *fakeConn, done <-chan struct{}) {
			defer wg.Done()
			for i := 0; i < perConnection; i++ {
				select {
				case event := <-conn.events:
					assert.Equal(t, fmt.Sprintf("re: %s-%d", name, i), event.Message)
				case <-time.After(2 * time.Second):
					assert.Fail(t, "timed out waiting for reply", name)
					return
				}
			}
			close(conn.inbound)
			<-done
		}(name, conn, done)
	}
	wg.Wait()

	turns := mustSession(t, fixture.sessions, "shared").Transcript()
	require.Len(t, turns, 4*perConnection)
	for i := 0; i < len(turns); i += 2 {
		require.Equal(t, models.TurnRoleUser, turns[i].Role)
		require.Equal(t, models.TurnRoleAssistant, turns[i+1].Role)
		require.Equal(t, "re: "+turns[i].Content, turns[i+1].Content)
	}
}

func TestInterviewServiceAbandonsCompletionOnDisconnect(t *testing.T) {
	completer := &blockingCompleter{started: make(chan struct{}), err: make(chan error, 1)}
	fixture := newServiceFixture(completer, InterviewDependencies{}, ReusePolicyResume)
	conn, done := fixture.connect(t, "gone")

	conn.send(t, dto.InboundEvent{Type: dto.EventMessage, Content: "are you there"})
	<-completer.started
	close(conn.inbound)

	waitDone(t, done)
	require.ErrorIs(t, <-completer.err, context.Canceled)
	conn.expectNoEvent(t)

	require.Equal(t, []models.Turn{{Role: models.TurnRoleUser, Content: "are you there"}},
		mustSession(t, fixture.sessions, "gone").Transcript())
}

func TestInterviewServiceStopsWhenWritesFail(t *testing.T) {
	fixture := newServiceFixture(echoCompleter{}, InterviewDependencies{}, ReusePolicyResume)
	conn := newFakeConn()
	conn.writeErr = errors.New("broken pipe")

	fixture.svc.ServeConnection(conn, InterviewConnectionOptions{SessionID: "broken"})
	require.True(t, conn.isClosed())
}

func TestInterviewServicePublishesOutboundEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	completer := &scriptedCompleter{replies: []scriptedReply{{text: "done"}}}
	fixture := newServiceFixture(completer, InterviewDependencies{Publisher: publisher}, ReusePolicyResume)

	conn, done := fixture.connect(t, "pub")
	conn.send(t, dto.InboundEvent{Type: dto.EventProblemDescription, Content: "Merge intervals"})
	conn.next(t)
	conn.send(t, dto.InboundEvent{Type: dto.EventEndSession})
	conn.next(t)
	waitDone(t, done)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	require.Equal(t, []string{"pub/system", "pub/ai_response", "pub/session_summary"}, publisher.events)
}

func TestInterviewServiceSessionLookup(t *testing.T) {
	fixture := newServiceFixture(echoCompleter{}, InterviewDependencies{}, ReusePolicyResume)

	_, err := fixture.svc.Session(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)

	conn, done := fixture.connect(t, "lookup")
	conn.send(t, dto.InboundEvent{Type: dto.EventProblemDescription, Content: "Valid parentheses"})
	conn.next(t)
	hangUp(t, conn, done)

	resp, err := fixture.svc.Session(context.Background(), "lookup")
	require.NoError(t, err)
	require.Equal(t, "lookup", resp.ID)
	require.NotNil(t, resp.Problem)
	require.Equal(t, "Valid parentheses", *resp.Problem)
	require.Equal(t, 1, resp.TurnCount)
	require.Zero(t, resp.SubmissionCount)
	require.Equal(t, testStart, resp.StartedAt)

	_, err = fixture.svc.History(context.Background(), "lookup", 10)
	require.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestInterviewServiceArchivesHistory(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.InterviewArchiveEntry{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	completer := &scriptedCompleter{replies: []scriptedReply{{text: structuredReply}, {text: "good work"}}}
	fixture := newServiceFixture(completer, InterviewDependencies{Archive: repository.NewInterviewArchiveRepository(db)}, ReusePolicyResume)

	conn, done := fixture.connect(t, "archived")
	conn.send(t, dto.InboundEvent{Type: dto.EventProblemDescription, Content: "Climbing stairs"})
	conn.next(t)
	conn.send(t, dto.InboundEvent{Type: dto.EventCodeSubmission, Code: "fib(n)", Language: "go"})
	conn.next(t)
	conn.next(t)
	conn.next(t)
	conn.send(t, dto.InboundEvent{Type: dto.EventEndSession})
	conn.next(t)
	waitDone(t, done)

	history, err := fixture.svc.History(context.Background(), "archived", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)

	require.Equal(t, models.ArchiveKindTurn, history[0].Kind)
	require.Equal(t, "Problem: Climbing stairs", history[0].Content)

	require.Equal(t, models.ArchiveKindAnalysis, history[1].Kind)
	require.Equal(t, "go", history[1].Language)
	var payload struct {
		Score int    `json:"score"`
		Path  string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(history[1].Payload, &payload))
	require.Equal(t, 8, payload.Score)
	require.Equal(t, string(ai.PathStructured), payload.Path)

	require.Equal(t, models.ArchiveKindSummary, history[2].Kind)
	require.Equal(t, "good work", history[2].Content)

	_, err = fixture.svc.History(context.Background(), "never-seen", 0)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func mustSession(t *testing.T, sessions repository.SessionRepository, id string) *models.InterviewSession {
	t.Helper()
	session, ok := sessions.Get(id)
	require.True(t, ok, "session %s not found", id)
	return session
}
