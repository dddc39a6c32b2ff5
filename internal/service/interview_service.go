package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/dto"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/middleware"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/models"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/observability"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/repository"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/pkg/ai"
)

var (
	// ErrSessionNotFound indicates no session is known for the identifier.
	ErrSessionNotFound = errors.New("session not found")
	// ErrArchiveDisabled indicates the transcript archive is not configured.
	ErrArchiveDisabled = errors.New("interview archive disabled")

	errConnectionWrite = errors.New("interview connection write failed")
	errDisconnected    = errors.New("interview connection closed")
)

// Session reuse policies.
const (
	ReusePolicyResume = "resume"
	ReusePolicyReset  = "reset"
)

// EventConn is the message transport of one interview connection. It allows one concurrent
// reader and one concurrent writer.
type EventConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// InterviewConnectionOptions wraps metadata extracted during the HTTP upgrade.
type InterviewConnectionOptions struct {
	SessionID     string
	CorrelationID string
	Context       context.Context
}

// InterviewConfig tunes the protocol engine.
type InterviewConfig struct {
	// CompletionTimeout bounds every backend call; expiry counts as a backend failure.
	CompletionTimeout time.Duration
	// ReusePolicy decides what reconnecting to an ended session does.
	ReusePolicy string
	Now         func() time.Time
}

// InterviewDependencies groups the optional collaborators of the interview service.
type InterviewDependencies struct {
	Archive   repository.InterviewArchiveRepository
	Publisher InterviewEventPublisher
	Mirror    SessionMirror
}

// InterviewService drives interview websocket sessions and exposes their state.
type InterviewService interface {
	ServeConnection(conn EventConn, opts InterviewConnectionOptions)
	Session(ctx context.Context, sessionID string) (dto.SessionResponse, error)
	History(ctx context.Context, sessionID string, limit int) ([]dto.ArchiveEntryResponse, error)
}

type interviewService struct {
	sessions  repository.SessionRepository
	completer ai.Completer
	archive   repository.InterviewArchiveRepository
	publisher InterviewEventPublisher
	mirror    SessionMirror
	cfg       InterviewConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewInterviewService constructs the interview protocol engine.
func NewInterviewService(sessions repository.SessionRepository, completer ai.Completer, deps InterviewDependencies, cfg InterviewConfig, logger zerolog.Logger) InterviewService {
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 30 * time.Second
	}
	if cfg.ReusePolicy == "" {
		cfg.ReusePolicy = ReusePolicyResume
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &interviewService{
		sessions:  sessions,
		completer: completer,
		archive:   deps.Archive,
		publisher: deps.Publisher,
		mirror:    deps.Mirror,
		cfg:       cfg,
		logger:    logger.With().Str("component", "interview_service").Logger(),
		tracer:    otel.Tracer("github.com/abdoulousseini2028-droid/interview-prep-ai/internal/service/interview"),
	}
}

func (s *interviewService) ServeConnection(conn EventConn, opts InterviewConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	correlation := opts.CorrelationID
	if correlation == "" {
		correlation = middleware.CorrelationIDFromContext(baseCtx)
	}

	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	session := s.openSession(opts.SessionID)
	client := &interviewClient{
		service: s,
		conn:    conn,
		session: session,
		ctx:     ctx,
		logger: s.logger.With().
			Str("session_id", opts.SessionID).
			Str("correlation_id", correlation).
			Logger(),
	}

	observability.ActiveConnections().Inc()
	defer observability.ActiveConnections().Dec()

	client.run(cancel)
}

func (s *interviewService) Session(ctx context.Context, sessionID string) (dto.SessionResponse, error) {
	if session, ok := s.sessions.Get(sessionID); ok {
		return dto.NewSessionResponse(session.Snapshot()), nil
	}

	if s.mirror != nil {
		snapshot, err := s.mirror.LoadSnapshot(ctx, sessionID)
		if err == nil {
			return dto.NewSessionResponse(snapshot), nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to read mirrored session")
		}
	}

	return dto.SessionResponse{}, ErrSessionNotFound
}

func (s *interviewService) History(ctx context.Context, sessionID string, limit int) ([]dto.ArchiveEntryResponse, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}

	entries, err := s.archive.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if _, ok := s.sessions.Get(sessionID); !ok {
			return nil, ErrSessionNotFound
		}
	}

	return dto.NewArchiveEntryResponseSlice(entries), nil
}

func (s *interviewService) openSession(sessionID string) *models.InterviewSession {
	_, existed := s.sessions.Get(sessionID)

	var session *models.InterviewSession
	if s.cfg.ReusePolicy == ReusePolicyReset {
		session = s.sessions.Renew(sessionID, (*models.InterviewSession).Ended)
	} else {
		session = s.sessions.GetOrCreate(sessionID)
	}

	state := "new"
	if existed {
		state = "resumed"
	}
	observability.SessionsOpened().WithLabelValues(state).Inc()
	return session
}

func (s *interviewService) now() time.Time {
	return s.cfg.Now().UTC()
}

// interviewClient is the per-connection state of the protocol engine.
type interviewClient struct {
	service *interviewService
	conn    EventConn
	session *models.InterviewSession
	ctx     context.Context
	logger  zerolog.Logger
}

func (c *interviewClient) run(cancel context.CancelFunc) {
	c.logger.Info().Msg("interview connection opened")
	if err := c.emit(c.systemEvent(welcomeMessage)); err != nil {
		c.close()
		return
	}

	frames := make(chan []byte)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		c.reader(frames, cancel)
	}()

	// The transport is released once the handler returns, so the reader must be gone by then.
	defer func() {
		c.close()
		cancel()
		<-readerDone
	}()

	for {
		var payload []byte
		select {
		case <-c.ctx.Done():
			c.logger.Info().Msg("interview connection closed by client")
			return
		case payload = <-frames:
		}

		done, err := c.handleFrame(payload)
		switch {
		case errors.Is(err, errConnectionWrite), errors.Is(err, errDisconnected):
			c.logger.Debug().Err(err).Msg("interview connection lost while handling event")
			return
		case err != nil:
			c.logger.Error().Err(err).Msg("interview event failed")
			_ = c.emit(c.messageEvent(dto.EventError, genericErrorMessage))
			return
		case done:
			c.logger.Info().Msg("interview session ended")
			return
		}
	}
}

// reader forwards raw frames until the transport fails, then cancels the connection context so
// that in-flight backend calls are abandoned.
func (c *interviewClient) reader(frames chan<- []byte, cancel context.CancelFunc) {
	defer cancel()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.logger.Debug().Err(err).Msg("interview read loop ended")
			return
		}

		select {
		case frames <- payload:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *interviewClient) close() {
	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
	_ = c.conn.WriteMessage(websocket.CloseMessage, closing)
	_ = c.conn.Close()
}

func (c *interviewClient) handleFrame(payload []byte) (done bool, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic while handling interview event: %v", recovered)
		}
	}()

	var event dto.InboundEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return false, fmt.Errorf("decode inbound event: %w", err)
	}

	if !isKnownEvent(event.Type) {
		observability.InboundEvents().WithLabelValues("unknown").Inc()
		c.logger.Debug().Str("type", event.Type).Msg("ignoring unknown interview event")
		return false, nil
	}
	observability.InboundEvents().WithLabelValues(event.Type).Inc()

	release := c.session.Serialize()
	defer release()

	ctx, span := c.service.tracer.Start(c.ctx, "interview.event", trace.WithAttributes(
		attribute.String("interview.session_id", c.session.ID()),
		attribute.String("interview.event", event.Type),
	))
	defer span.End()

	switch event.Type {
	case dto.EventProblemDescription:
		err = c.handleProblem(ctx, event)
	case dto.EventExplanation:
		err = c.handleConversation(ctx, "My approach: "+event.Content, explanationSystemPrompt)
	case dto.EventCodeSubmission:
		err = c.handleSubmission(ctx, event)
	case dto.EventMessage:
		err = c.handleConversation(ctx, event.Content, messageSystemPrompt)
	case dto.EventEndSession:
		err = c.handleEnd(ctx)
		done = err == nil
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	c.mirror(ctx)
	return done, nil
}

func (c *interviewClient) handleProblem(ctx context.Context, event dto.InboundEvent) error {
	if !c.session.SetProblem(event.Content) {
		c.logger.Debug().Msg("problem already set, keeping the first statement")
	}
	c.appendTurn(ctx, models.TurnRoleUser, "Problem: "+event.Content)

	return c.emit(c.messageEvent(dto.EventAIResponse, problemAcknowledgement))
}

func (c *interviewClient) handleConversation(ctx context.Context, content, systemPrompt string) error {
	c.appendTurn(ctx, models.TurnRoleUser, content)

	reply, err := c.complete(ctx, ai.CompletionRequest{
		System:    systemPrompt,
		Messages:  transcriptMessages(c.session.Transcript()),
		MaxTokens: conversationMaxTokens,
	})
	if err != nil {
		if c.ctx.Err() != nil {
			return errDisconnected
		}
		c.logger.Warn().Err(err).Msg("completion failed, asking client to retry")
		return c.emit(c.messageEvent(dto.EventError, backendRetryMessage))
	}

	c.appendTurn(ctx, models.TurnRoleAssistant, reply)
	return c.emit(c.messageEvent(dto.EventAIResponse, reply))
}

func (c *interviewClient) handleSubmission(ctx context.Context, event dto.InboundEvent) error {
	if strings.TrimSpace(event.Code) == "" {
		return c.emit(c.messageEvent(dto.EventError, emptySubmissionMessage))
	}

	language := strings.TrimSpace(event.Language)
	if language == "" {
		language = defaultLanguage
	}

	c.session.AddSubmission(models.CodeSubmission{
		Code:        event.Code,
		Language:    language,
		SubmittedAt: c.service.now(),
	})

	if err := c.emit(c.messageEvent(dto.EventSystem, analyzingMessage)); err != nil {
		return err
	}

	analysis, err := c.analyze(ctx, event.Code, language)
	if err != nil {
		return err
	}

	analysisEvent := c.event(dto.EventCodeAnalysis)
	analysisEvent.Analysis = &analysis
	if err := c.emit(analysisEvent); err != nil {
		return err
	}

	return c.emit(c.messageEvent(dto.EventAIResponse, analysis.FollowUpQuestion))
}

// analyze runs the code analysis protocol. Backend failures yield the degraded result; only a
// lost connection is reported as an error.
func (c *interviewClient) analyze(ctx context.Context, code, language string) (ai.AnalysisResult, error) {
	problem, ok := c.session.Problem()
	if !ok {
		problem = defaultProblemPlaceholder
	}

	messages := transcriptMessages(c.session.Transcript())
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: analysisPrompt(problem, language, code)})

	var (
		result ai.AnalysisResult
		path   ai.ExtractionPath
	)
	reply, err := c.complete(ctx, ai.CompletionRequest{
		System:      analysisSystemPrompt,
		Messages:    messages,
		MaxTokens:   analysisMaxTokens,
		Temperature: analysisTemperature,
	})
	if err != nil {
		if c.ctx.Err() != nil {
			return ai.AnalysisResult{}, errDisconnected
		}
		c.logger.Warn().Err(err).Msg("code analysis unavailable, using degraded result")
		result, path = ai.DegradedAnalysis(), ai.PathDegraded
	} else {
		extraction := ai.ExtractAnalysis(reply)
		if extraction.Err != nil {
			c.logger.Warn().Err(extraction.Err).Msg("structured analysis rejected, using prose fallback")
		}
		result, path = extraction.Result, extraction.Path
	}

	observability.Analyses().WithLabelValues(string(path)).Inc()
	c.archiveAnalysis(ctx, language, code, result, path)
	return result, nil
}

func (c *interviewClient) handleEnd(ctx context.Context) error {
	problem, ok := c.session.Problem()
	if !ok {
		problem = summaryProblemPlaceholder
	}
	submissions := c.session.SubmissionCount()

	messages := transcriptMessages(c.session.Transcript())
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: summaryPrompt(problem, submissions)})

	summary, err := c.complete(ctx, ai.CompletionRequest{
		Messages:  messages,
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		if c.ctx.Err() != nil {
			return errDisconnected
		}
		c.logger.Warn().Err(err).Msg("summary unavailable, sending fallback summary")
		summary = fallbackSummary
	}

	now := c.service.now()
	c.session.MarkEnded(now)
	c.archive(ctx, models.InterviewArchiveEntry{Kind: models.ArchiveKindSummary, Content: summary})

	event := c.event(dto.EventSessionSummary)
	event.Summary = summary
	event.SessionData = &dto.SessionData{
		Submissions: submissions,
		Duration:    now.Sub(c.session.StartedAt()).Round(time.Second).String(),
		Timestamp:   now,
	}
	return c.emit(event)
}

func (c *interviewClient) complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.service.cfg.CompletionTimeout)
	defer cancel()

	reply, err := c.service.completer.Complete(callCtx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: empty completion", ai.ErrBackendUnavailable)
	}
	return reply, nil
}

func (c *interviewClient) appendTurn(ctx context.Context, role, content string) {
	c.session.AppendTurn(role, content)
	c.archive(ctx, models.InterviewArchiveEntry{Kind: models.ArchiveKindTurn, Role: role, Content: content})
}

func (c *interviewClient) archiveAnalysis(ctx context.Context, language, code string, result ai.AnalysisResult, path ai.ExtractionPath) {
	if c.service.archive == nil {
		return
	}

	payload, err := json.Marshal(struct {
		ai.AnalysisResult
		Path ai.ExtractionPath `json:"path"`
	}{result, path})
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal analysis for archive")
		return
	}

	c.archive(ctx, models.InterviewArchiveEntry{
		Kind:     models.ArchiveKindAnalysis,
		Content:  code,
		Language: language,
		Payload:  datatypes.JSON(payload),
	})
}

func (c *interviewClient) archive(ctx context.Context, entry models.InterviewArchiveEntry) {
	if c.service.archive == nil {
		return
	}

	entry.SessionID = c.session.ID()
	if err := c.service.archive.Save(context.WithoutCancel(ctx), &entry); err != nil {
		c.logger.Warn().Err(err).Str("kind", entry.Kind).Msg("failed to archive interview entry")
	}
}

func (c *interviewClient) mirror(ctx context.Context) {
	if c.service.mirror == nil {
		return
	}

	// Records outlive the connection that produced them.
	if err := c.service.mirror.StoreSnapshot(context.WithoutCancel(ctx), c.session.Snapshot()); err != nil {
		c.logger.Warn().Err(err).Msg("failed to mirror session snapshot")
	}
}

func (c *interviewClient) emit(event dto.OutboundEvent) error {
	if err := c.conn.WriteJSON(event); err != nil {
		return fmt.Errorf("%w: %w", errConnectionWrite, err)
	}
	observability.OutboundEvents().WithLabelValues(event.Type).Inc()

	if c.service.publisher != nil {
		if err := c.service.publisher.Publish(c.ctx, c.session.ID(), event); err != nil {
			c.logger.Warn().Err(err).Msg("failed to publish interview event")
		}
	}
	return nil
}

func (c *interviewClient) event(eventType string) dto.OutboundEvent {
	return dto.OutboundEvent{Type: eventType, Timestamp: c.service.now()}
}

func (c *interviewClient) messageEvent(eventType, message string) dto.OutboundEvent {
	event := c.event(eventType)
	event.Message = message
	return event
}

func (c *interviewClient) systemEvent(message string) dto.OutboundEvent {
	return c.messageEvent(dto.EventSystem, message)
}

func transcriptMessages(turns []models.Turn) []ai.Message {
	messages := make([]ai.Message, 0, len(turns)+1)
	for _, turn := range turns {
		messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

func isKnownEvent(eventType string) bool {
	switch eventType {
	case dto.EventProblemDescription, dto.EventExplanation, dto.EventCodeSubmission, dto.EventMessage, dto.EventEndSession:
		return true
	}
	return false
}
