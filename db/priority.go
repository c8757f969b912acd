package db

import (
	"context"

	"brigadez/internal/apperr"
	"brigadez/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const priorityLock = "priority"

// MarkPriority добавляет заявку в список приоритетов с рангом max+1.
// Чтение максимума и запись идут в одной транзакции под advisory-локом владельца,
// поэтому параллельные добавления не получают одинаковый ранг.
// Если заявка уже в списке, ранг намеренно сохраняется, заменяются только теги.
func (s *Storage) MarkPriority(ctx context.Context, userID, enquiryID string, types []string) (*models.Enquiry, error) {
	defer s.track("update", "enquiries")()
	e := &models.Enquiry{}
	err := s.withTx(ctx, "mark priority", func(tx *sqlx.Tx) error {
		if err := lockOwner(ctx, tx, priorityLock, userID); err != nil {
			return err
		}

		var current struct {
			IsPriority   bool `db:"is_priority"`
			PriorityRank *int `db:"priority_rank"`
		}
		err := tx.GetContext(ctx, &current,
			`SELECT is_priority, priority_rank FROM enquiries WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			enquiryID, userID)
		if err != nil {
			return notFound(err)
		}

		// уже в списке: ранг не меняется, max+1 только для новых
		rank := current.PriorityRank
		if !current.IsPriority || rank == nil {
			var next int
			err = tx.GetContext(ctx, &next, `
                SELECT COALESCE(MAX(priority_rank), 0) + 1
                FROM enquiries
                WHERE user_id = $1 AND is_priority`, userID)
			if err != nil {
				return err
			}
			rank = &next
		}

		query := `
            UPDATE enquiries
            SET is_priority = TRUE, priority_rank = $1, priority_types = $2, updated_at = NOW()
            WHERE id = $3 AND user_id = $4
            RETURNING ` + enquiryColumns
		return tx.GetContext(ctx, e, query, *rank, pq.StringArray(types), enquiryID, userID)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ClearPriority убирает заявку из списка. Остальные ранги не перенумеровываются.
func (s *Storage) ClearPriority(ctx context.Context, userID, enquiryID string) (*models.Enquiry, error) {
	defer s.track("update", "enquiries")()
	e := &models.Enquiry{}
	query := `
        UPDATE enquiries
        SET is_priority = FALSE, priority_rank = NULL, priority_types = NULL, updated_at = NOW()
        WHERE id = $1 AND user_id = $2
        RETURNING ` + enquiryColumns
	if err := s.db.GetContext(ctx, e, query, enquiryID, userID); err != nil {
		return nil, apperr.Storage("clear priority", notFound(err))
	}
	return e, nil
}

// ListPriority список приоритетов владельца по возрастанию ранга
func (s *Storage) ListPriority(ctx context.Context, userID string) ([]models.PriorityListItem, error) {
	defer s.track("select", "enquiries")()
	items := []models.PriorityListItem{}
	query := `
        SELECT e.id, e.code, e.job_name, COALESCE(c.name, 'Unknown') AS client_name,
               e.stage, e.due_date, e.priority_rank, e.priority_types
        FROM enquiries e
        LEFT JOIN clients c ON c.id = e.client_id
        WHERE e.user_id = $1 AND e.is_priority
        ORDER BY e.priority_rank ASC NULLS LAST, e.id ASC`
	if err := s.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, apperr.Storage("list priority", err)
	}
	return items, nil
}

// ReorderPriority применяет все ранги одним UPDATE в транзакции.
// Если хотя бы одна заявка не найдена среди приоритетных заявок владельца,
// изменения откатываются и возвращается ErrNotFound. Если новый ранг уже занят
// заявкой вне запроса, изменения откатываются с ValidationError.
func (s *Storage) ReorderPriority(ctx context.Context, userID string, items []models.ReorderItem) (int, error) {
	defer s.track("update", "enquiries")()
	ids := make([]string, len(items))
	ranks := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.EnquiryID
		ranks[i] = int64(it.NewRank)
	}

	var updated int
	err := s.withTx(ctx, "reorder priority", func(tx *sqlx.Tx) error {
		if err := lockOwner(ctx, tx, priorityLock, userID); err != nil {
			return err
		}
		query := `
            UPDATE enquiries e
            SET priority_rank = v.rank, updated_at = NOW()
            FROM (SELECT UNNEST($1::uuid[]) AS id, UNNEST($2::int[]) AS rank) v
            WHERE e.id = v.id AND e.user_id = $3 AND e.is_priority`
		res, err := tx.ExecContext(ctx, query, pq.Array(ids), pq.Array(ranks), userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if int(n) != len(items) {
			return apperr.ErrNotFound
		}

		// ранги запроса уникальны между собой, поэтому лишние строки
		// с этими рангами принадлежат заявкам вне запроса
		var holders int
		err = tx.GetContext(ctx, &holders, `
            SELECT COUNT(1) FROM enquiries
            WHERE user_id = $1 AND is_priority AND priority_rank = ANY($2::int[])`,
			userID, pq.Array(ranks))
		if err != nil {
			return err
		}
		if holders != len(items) {
			return apperr.Validation("items", "new ranks collide with enquiries outside the request")
		}
		updated = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// SetPriorityRank одиночное условное обновление ранга, без транзакции.
// false означает, что заявка не приоритетная или чужая.
func (s *Storage) SetPriorityRank(ctx context.Context, userID, enquiryID string, rank int) (bool, error) {
	defer s.track("update", "enquiries")()
	query := `
        UPDATE enquiries
        SET priority_rank = $1, updated_at = NOW()
        WHERE id = $2 AND user_id = $3 AND is_priority`
	res, err := s.db.ExecContext(ctx, query, rank, enquiryID, userID)
	if err != nil {
		return false, apperr.Storage("set priority rank", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("set priority rank", err)
	}
	return n > 0, nil
}
