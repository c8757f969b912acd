package milestone

import (
	"context"
	"strings"
	"time"

	"brigadez/internal/apperr"
	"brigadez/internal/metrics"
	"brigadez/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store у строк отметок нет владельца, поэтому доступ проверяется через GetEnquiry.
type Store interface {
	GetEnquiry(ctx context.Context, userID, enquiryID string) (*models.Enquiry, error)
	GetMilestone(ctx context.Context, enquiryID string) (*models.Milestone, error)
	ToggleCheckpoint(ctx context.Context, enquiryID string, c models.Checkpoint, actorID string, now time.Time) (bool, error)
	SetRectificationNote(ctx context.Context, enquiryID, note, actorID string, now time.Time) error
	CreateSchedule(ctx context.Context, t *models.Schedule) error
	FlagRectification(ctx context.Context, enquiryID, note, actorID string, now time.Time, task *models.Schedule) error
}

type Options struct {
	TaskTitle  string
	TaskWindow time.Duration
	Now        func() time.Time
}

type Service struct {
	store  Store
	opts   Options
	logger *zap.Logger
}

func NewService(store Store, opts Options, logger *zap.Logger) *Service {
	if opts.TaskTitle == "" {
		opts.TaskTitle = "Rectification Work"
	}
	if opts.TaskWindow <= 0 {
		opts.TaskWindow = 7 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, opts: opts, logger: logger}
}

// authorize проверяет, что заявка принадлежит пользователю,
// и возвращает её id в канонической форме
func (s *Service) authorize(ctx context.Context, userID, enquiryID string) (string, error) {
	if userID == "" {
		return "", apperr.ErrUnauthenticated
	}
	if enquiryID == "" {
		return "", apperr.Validation("enquiryId", "is required")
	}
	u, err := uuid.Parse(enquiryID)
	if err != nil {
		return "", apperr.Validation("enquiryId", "must be a uuid")
	}
	enquiryID = u.String()
	if _, err := s.store.GetEnquiry(ctx, userID, enquiryID); err != nil {
		return "", err
	}
	return enquiryID, nil
}

// Get nil без ошибки означает, что отметок ещё не было
func (s *Service) Get(ctx context.Context, userID, enquiryID string) (*models.Milestone, error) {
	enquiryID, err := s.authorize(ctx, userID, enquiryID)
	if err != nil {
		return nil, err
	}
	return s.store.GetMilestone(ctx, enquiryID)
}

// ToggleCheckpoint actorID по умолчанию равен userID.
// Переключение rectification_required задачу не создаёт.
func (s *Service) ToggleCheckpoint(ctx context.Context, userID, enquiryID, checkpointKey, actorID string) (bool, error) {
	if userID == "" {
		return false, apperr.ErrUnauthenticated
	}
	c, ok := models.ParseCheckpoint(checkpointKey)
	if !ok {
		return false, apperr.Validation("checkpointKey", "unknown checkpoint "+checkpointKey)
	}
	enquiryID, err := s.authorize(ctx, userID, enquiryID)
	if err != nil {
		return false, err
	}
	if actorID == "" {
		actorID = userID
	}

	value, err := s.store.ToggleCheckpoint(ctx, enquiryID, c, actorID, s.opts.Now())
	if err != nil {
		return false, err
	}
	metrics.IncrementMilestoneToggle(string(c), value)
	s.logger.Info("checkpoint toggled",
		zap.String("enquiry_id", enquiryID),
		zap.String("checkpoint", string(c)),
		zap.Bool("value", value),
		zap.String("actor", actorID),
	)
	return value, nil
}

// SetRectificationNote не переключает флаг rectification_required
func (s *Service) SetRectificationNote(ctx context.Context, userID, enquiryID, note, actorID string) error {
	enquiryID, err := s.authorize(ctx, userID, enquiryID)
	if err != nil {
		return err
	}
	if actorID == "" {
		actorID = userID
	}
	return s.store.SetRectificationNote(ctx, enquiryID, note, actorID, s.opts.Now())
}

// CreateRectificationTask создаёт задачу независимо от записи отметок
func (s *Service) CreateRectificationTask(ctx context.Context, userID, enquiryID, note string) (string, error) {
	enquiryID, err := s.authorize(ctx, userID, enquiryID)
	if err != nil {
		return "", err
	}
	task := s.rectificationTask(userID, enquiryID, note, s.opts.Now())
	if err := s.store.CreateSchedule(ctx, task); err != nil {
		return "", err
	}
	metrics.IncrementRectificationTask("task")
	s.logger.Info("rectification task created",
		zap.String("enquiry_id", enquiryID),
		zap.String("task_id", task.ID),
	)
	return task.ID, nil
}

// FlagRectification включает флаг, сохраняет заметку и создаёт задачу атомарно.
func (s *Service) FlagRectification(ctx context.Context, userID, enquiryID, note, actorID string) (*models.RectificationResult, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperr.Validation("note", "is required")
	}
	enquiryID, err := s.authorize(ctx, userID, enquiryID)
	if err != nil {
		return nil, err
	}
	if actorID == "" {
		actorID = userID
	}

	now := s.opts.Now()
	task := s.rectificationTask(userID, enquiryID, note, now)
	if err := s.store.FlagRectification(ctx, enquiryID, note, actorID, now, task); err != nil {
		return nil, err
	}
	metrics.IncrementRectificationTask("flag")
	return &models.RectificationResult{
		Events: []models.RectificationEvent{models.RectificationFlagged, models.TaskCreated},
		TaskID: task.ID,
	}, nil
}

func (s *Service) rectificationTask(userID, enquiryID, note string, now time.Time) *models.Schedule {
	enquiry := enquiryID
	return &models.Schedule{
		ID:          uuid.New().String(),
		UserID:      userID,
		EnquiryID:   &enquiry,
		Title:       s.opts.TaskTitle,
		Description: note,
		Status:      models.ScheduleStatusScheduled,
		Priority:    models.SchedulePriorityHigh,
		StartDate:   now,
		EndDate:     now.Add(s.opts.TaskWindow),
	}
}
