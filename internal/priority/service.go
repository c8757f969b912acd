package priority

import (
	"context"
	"errors"
	"sync/atomic"

	"brigadez/internal/apperr"
	"brigadez/internal/config"
	"brigadez/internal/metrics"
	"brigadez/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store операции хранилища, нужные списку приоритетов. Все вызовы ограничены владельцем.
type Store interface {
	MarkPriority(ctx context.Context, userID, enquiryID string, types []string) (*models.Enquiry, error)
	ClearPriority(ctx context.Context, userID, enquiryID string) (*models.Enquiry, error)
	ListPriority(ctx context.Context, userID string) ([]models.PriorityListItem, error)
	ReorderPriority(ctx context.Context, userID string, items []models.ReorderItem) (int, error)
	SetPriorityRank(ctx context.Context, userID, enquiryID string, rank int) (bool, error)
}

type Options struct {
	Strategy string
	// Parallelism ограничивает число одновременных записей в стратегии independent.
	// 0 без ограничения.
	Parallelism int
}

type Service struct {
	store  Store
	opts   Options
	logger *zap.Logger
}

func NewService(store Store, opts Options, logger *zap.Logger) *Service {
	if opts.Strategy == "" {
		opts.Strategy = config.ReorderTransaction
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, opts: opts, logger: logger}
}

// AddOrTag добавляет заявку в список с тегами или убирает её оттуда.
// При добавлении нужен хотя бы один допустимый тег; неизвестные теги отбрасываются.
func (s *Service) AddOrTag(ctx context.Context, userID, enquiryID string, wantPriority bool, tags []string) (*models.PrioritySummary, error) {
	op := "remove"
	if wantPriority {
		op = "add"
	}
	if userID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	enquiryID, err := canonicalID("enquiryId", enquiryID)
	if err != nil {
		s.record(op, err)
		return nil, err
	}

	var e *models.Enquiry
	if wantPriority {
		types := models.FilterPriorityTypes(tags)
		if len(types) == 0 {
			err = apperr.Validation("tags", "at least one of drawing, quote, work is required")
			s.record(op, err)
			return nil, err
		}
		e, err = s.store.MarkPriority(ctx, userID, enquiryID, types)
	} else {
		e, err = s.store.ClearPriority(ctx, userID, enquiryID)
	}
	s.record(op, err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("priority updated",
		zap.String("enquiry_id", e.ID),
		zap.Bool("is_priority", e.IsPriority),
		zap.Strings("types", e.PriorityTypes),
	)
	return e.PrioritySummary(), nil
}

// List каждый вызов перечитывает текущее состояние
func (s *Service) List(ctx context.Context, userID string) ([]models.PriorityListItem, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	items, err := s.store.ListPriority(ctx, userID)
	s.record("list", err)
	return items, err
}

// Reorder применяет ранги, рассчитанные клиентом после drag-and-drop.
// Стратегия transaction: всё или ничего. Стратегия independent: N параллельных
// условных обновлений, успевшие записи не откатываются.
func (s *Service) Reorder(ctx context.Context, userID string, items []models.ReorderItem) (int, error) {
	if userID == "" {
		return 0, apperr.ErrUnauthenticated
	}
	items, err := normalizeReorder(items)
	if err != nil {
		s.record("reorder", err)
		return 0, err
	}

	var updated int
	if s.opts.Strategy == config.ReorderIndependent {
		updated, err = s.reorderIndependent(ctx, userID, items)
	} else {
		updated, err = s.store.ReorderPriority(ctx, userID, items)
	}
	s.record("reorder", err)
	if err != nil {
		s.logger.Warn("reorder failed",
			zap.String("strategy", s.opts.Strategy),
			zap.Int("items", len(items)),
			zap.Error(err),
		)
		return updated, err
	}
	return updated, nil
}

// reorderIndependent без транзакции, поэтому коллизии рангов с заявками вне
// запроса проверяются заранее по текущему списку.
func (s *Service) reorderIndependent(ctx context.Context, userID string, items []models.ReorderItem) (int, error) {
	current, err := s.store.ListPriority(ctx, userID)
	if err != nil {
		return 0, err
	}
	if rankCollision(current, items) {
		return 0, apperr.Validation("items", "new ranks collide with enquiries outside the request")
	}

	var (
		g       errgroup.Group
		updated atomic.Int64
		failed  atomic.Int64
	)
	if s.opts.Parallelism > 0 {
		g.SetLimit(s.opts.Parallelism)
	}
	for _, it := range items {
		it := it
		g.Go(func() error {
			ok, err := s.store.SetPriorityRank(ctx, userID, it.EnquiryID, it.NewRank)
			if err != nil {
				failed.Add(1)
				return err
			}
			if ok {
				updated.Add(1)
			}
			return nil
		})
	}
	firstErr := g.Wait()

	if firstErr == nil {
		return int(updated.Load()), nil
	}
	if updated.Load() == 0 {
		return 0, apperr.Storage("reorder", firstErr)
	}
	return int(updated.Load()), &apperr.PartialFailureError{
		Updated: int(updated.Load()),
		Failed:  int(failed.Load()),
		Err:     firstErr,
	}
}

// rankCollision true, если после применения items две приоритетные заявки получат один ранг
func rankCollision(current []models.PriorityListItem, items []models.ReorderItem) bool {
	final := make(map[string]int, len(current))
	for _, c := range current {
		if c.PriorityRank != nil {
			final[c.ID] = *c.PriorityRank
		}
	}
	for _, it := range items {
		if _, ok := final[it.EnquiryID]; ok {
			final[it.EnquiryID] = it.NewRank
		}
	}
	seen := make(map[int]bool, len(final))
	for _, rank := range final {
		if seen[rank] {
			return true
		}
		seen[rank] = true
	}
	return false
}

// normalizeReorder проверяет элементы и приводит id к каноническому виду
func normalizeReorder(items []models.ReorderItem) ([]models.ReorderItem, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("items", "must be a non-empty array")
	}
	out := make([]models.ReorderItem, len(items))
	ids := make(map[string]bool, len(items))
	ranks := make(map[int]bool, len(items))
	for i, it := range items {
		id, err := canonicalID("enquiryId", it.EnquiryID)
		if err != nil {
			return nil, err
		}
		if it.NewRank < 1 {
			return nil, apperr.Validation("newRank", "must be a positive integer")
		}
		if ids[id] {
			return nil, apperr.Validation("items", "duplicate enquiryId "+id)
		}
		if ranks[it.NewRank] {
			return nil, apperr.Validation("items", "duplicate newRank")
		}
		ids[id] = true
		ranks[it.NewRank] = true
		out[i] = models.ReorderItem{EnquiryID: id, NewRank: it.NewRank}
	}
	return out, nil
}

// canonicalID принимает любую запись uuid, которую понимает uuid.Parse,
// и возвращает каноническую форму для хранилища
func canonicalID(field, id string) (string, error) {
	if id == "" {
		return "", apperr.Validation(field, "is required")
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.Validation(field, "must be a uuid")
	}
	return u.String(), nil
}

func (s *Service) record(op string, err error) {
	metrics.IncrementPriorityOperation(op, Result(err))
}

// Result метка исхода операции для метрик
func Result(err error) string {
	var (
		ve *apperr.ValidationError
		pf *apperr.PartialFailureError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.As(err, &ve):
		return "invalid"
	case errors.As(err, &pf):
		return "partial"
	}
	return "error"
}
