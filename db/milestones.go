package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brigadez/internal/apperr"
	"brigadez/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GetMilestone возвращает nil, nil если записи ещё нет
func (s *Storage) GetMilestone(ctx context.Context, enquiryID string) (*models.Milestone, error) {
	defer s.track("select", "enquiry_milestones")()
	m := &models.Milestone{}
	err := s.db.GetContext(ctx, m, `SELECT * FROM enquiry_milestones WHERE enquiry_id = $1`, enquiryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("get milestone", err)
	}
	return m, nil
}

// ToggleCheckpoint переворачивает отметку одним upsert'ом: новое значение считается
// из сохранённого в той же строке, время и автор ставятся/очищаются вместе с флагом.
// Первая запись создаёт строку с включённой отметкой.
func (s *Storage) ToggleCheckpoint(ctx context.Context, enquiryID string, c models.Checkpoint, actorID string, now time.Time) (bool, error) {
	if _, ok := models.ParseCheckpoint(string(c)); !ok {
		return false, apperr.Validation("checkpointKey", "unknown checkpoint")
	}
	defer s.track("upsert", "enquiry_milestones")()

	query := fmt.Sprintf(`
        INSERT INTO enquiry_milestones (id, enquiry_id, %[1]s, %[1]s_at, %[1]s_by, updated_at, updated_by)
        VALUES ($1, $2, TRUE, $3, $4, $3, $4)
        ON CONFLICT (enquiry_id) DO UPDATE SET
            %[1]s = NOT enquiry_milestones.%[1]s,
            %[1]s_at = CASE WHEN enquiry_milestones.%[1]s THEN NULL ELSE EXCLUDED.%[1]s_at END,
            %[1]s_by = CASE WHEN enquiry_milestones.%[1]s THEN NULL ELSE EXCLUDED.%[1]s_by END,
            updated_at = EXCLUDED.updated_at,
            updated_by = EXCLUDED.updated_by
        RETURNING %[1]s`, string(c))

	var value bool
	err := s.db.QueryRowContext(ctx, query, uuid.New().String(), enquiryID, now, actorID).Scan(&value)
	if err != nil {
		return false, apperr.Storage("toggle checkpoint", err)
	}
	return value, nil
}

const upsertRectificationNote = `
    INSERT INTO enquiry_milestones
        (id, enquiry_id, rectification_note, rectification_required_at, rectification_required_by, updated_at, updated_by)
    VALUES ($1, $2, $3, $4, $5, $4, $5)
    ON CONFLICT (enquiry_id) DO UPDATE SET
        rectification_note = EXCLUDED.rectification_note,
        rectification_required_at = EXCLUDED.rectification_required_at,
        rectification_required_by = EXCLUDED.rectification_required_by,
        updated_at = EXCLUDED.updated_at,
        updated_by = EXCLUDED.updated_by`

// SetRectificationNote сохраняет заметку и ставит время/автора исправления.
// Сам флаг rectification_required не меняется.
func (s *Storage) SetRectificationNote(ctx context.Context, enquiryID, note, actorID string, now time.Time) error {
	defer s.track("upsert", "enquiry_milestones")()
	_, err := s.db.ExecContext(ctx, upsertRectificationNote, uuid.New().String(), enquiryID, note, now, actorID)
	return apperr.Storage("set rectification note", err)
}

// FlagRectification в одной транзакции включает флаг исправления, сохраняет заметку
// и создаёт задачу в расписании.
func (s *Storage) FlagRectification(ctx context.Context, enquiryID, note, actorID string, now time.Time, task *models.Schedule) error {
	defer s.track("upsert", "enquiry_milestones")()
	return s.withTx(ctx, "flag rectification", func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO enquiry_milestones
                (id, enquiry_id, rectification_required, rectification_note,
                 rectification_required_at, rectification_required_by, updated_at, updated_by)
            VALUES ($1, $2, TRUE, $3, $4, $5, $4, $5)
            ON CONFLICT (enquiry_id) DO UPDATE SET
                rectification_required = TRUE,
                rectification_note = EXCLUDED.rectification_note,
                rectification_required_at = EXCLUDED.rectification_required_at,
                rectification_required_by = EXCLUDED.rectification_required_by,
                updated_at = EXCLUDED.updated_at,
                updated_by = EXCLUDED.updated_by`
		if _, err := tx.ExecContext(ctx, query, uuid.New().String(), enquiryID, note, now, actorID); err != nil {
			return err
		}
		return createSchedule(ctx, tx, task)
	})
}
