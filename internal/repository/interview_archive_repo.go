package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/models"
)

// InterviewArchiveRepository stores an audit trail of interview sessions.
type InterviewArchiveRepository interface {
	Save(ctx context.Context, entry *models.InterviewArchiveEntry) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.InterviewArchiveEntry, error)
}

type interviewArchiveRepository struct {
	db *gorm.DB
}

// NewInterviewArchiveRepository constructs an archive repository backed by GORM.
func NewInterviewArchiveRepository(db *gorm.DB) InterviewArchiveRepository {
	return &interviewArchiveRepository{db: db}
}

func (r *interviewArchiveRepository) Save(ctx context.Context, entry *models.InterviewArchiveEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *interviewArchiveRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.InterviewArchiveEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var entries []models.InterviewArchiveEntry
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
