package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/dto"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/models"
)

// InterviewEventPublisher receives every outbound event after it was delivered to the client.
type InterviewEventPublisher interface {
	Publish(ctx context.Context, sessionID string, event dto.OutboundEvent) error
}

// SessionMirror keeps short-lived copies of session snapshots outside the process so other
// nodes can answer inspection requests. It is a cache, not a store: sessions are never
// restored from it.
type SessionMirror interface {
	StoreSnapshot(ctx context.Context, snapshot models.SessionSnapshot) error
	LoadSnapshot(ctx context.Context, sessionID string) (models.SessionSnapshot, error)
}

// InterviewEnvelope is the message published for observers of interview traffic.
type InterviewEnvelope struct {
	Source    string            `json:"source"`
	SessionID string            `json:"session_id"`
	Event     dto.OutboundEvent `json:"event"`
	SentAt    time.Time         `json:"sent_at"`
}

// InterviewFanout publishes interview events over Redis pub/sub and NATS, and mirrors session
// snapshots into Redis. Either transport may be nil.
type InterviewFanout struct {
	redis        *redis.Client
	redisChannel string
	snapshotKey  string
	snapshotTTL  time.Duration
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

// NewInterviewFanout derives channel, key and subject names from channelBase.
func NewInterviewFanout(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, snapshotTTL time.Duration, logger zerolog.Logger) *InterviewFanout {
	if channelBase == "" {
		channelBase = "coach:interview"
	}
	if snapshotTTL <= 0 {
		snapshotTTL = time.Hour
	}

	return &InterviewFanout{
		redis:        redisClient,
		redisChannel: channelBase + ":events",
		snapshotKey:  channelBase + ":session",
		snapshotTTL:  snapshotTTL,
		nats:         natsConn,
		natsSubject:  strings.ReplaceAll(channelBase, ":", ".") + ".events",
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "interview_fanout").Logger(),
	}
}

// Channel returns the Redis pub/sub channel events are published on.
func (f *InterviewFanout) Channel() string {
	return f.redisChannel
}

// Subject returns the NATS subject prefix. Events for a session go to "<prefix>.<session id>".
func (f *InterviewFanout) Subject() string {
	return f.natsSubject
}

func (f *InterviewFanout) Publish(ctx context.Context, sessionID string, event dto.OutboundEvent) error {
	if f.redis == nil && f.nats == nil {
		return nil
	}

	payload, err := json.Marshal(InterviewEnvelope{
		Source:    f.nodeID,
		SessionID: sessionID,
		Event:     event,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal interview event: %w", err)
	}

	if f.redis != nil {
		if err := f.redis.Publish(ctx, f.redisChannel, payload).Err(); err != nil {
			return fmt.Errorf("publish interview event to redis: %w", err)
		}
	}

	if f.nats != nil {
		if err := f.nats.Publish(f.natsSubject+"."+natsToken(sessionID), payload); err != nil {
			return fmt.Errorf("publish interview event to nats: %w", err)
		}
	}

	return nil
}

func (f *InterviewFanout) StoreSnapshot(ctx context.Context, snapshot models.SessionSnapshot) error {
	if f.redis == nil {
		return nil
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}

	if err := f.redis.Set(ctx, f.key(snapshot.ID), payload, f.snapshotTTL).Err(); err != nil {
		return fmt.Errorf("mirror session snapshot: %w", err)
	}
	return nil
}

func (f *InterviewFanout) LoadSnapshot(ctx context.Context, sessionID string) (models.SessionSnapshot, error) {
	if f.redis == nil {
		return models.SessionSnapshot{}, ErrSessionNotFound
	}

	raw, err := f.redis.Get(ctx, f.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SessionSnapshot{}, ErrSessionNotFound
		}
		return models.SessionSnapshot{}, fmt.Errorf("load session snapshot: %w", err)
	}

	var snapshot models.SessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		f.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to unmarshal mirrored session")
		return models.SessionSnapshot{}, ErrSessionNotFound
	}
	return snapshot, nil
}

func (f *InterviewFanout) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", f.snapshotKey, sessionID)
}

// natsToken makes a session identifier safe to use as a single subject token.
func natsToken(sessionID string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, sessionID)
}
