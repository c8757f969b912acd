package db

import (
	"context"
	"time"

	"brigadez/internal/apperr"
	"brigadez/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const enquiryColumns = `id, user_id, client_id, code, job_name, description, stage, due_date,
        is_priority, priority_rank, priority_types, created_at, updated_at`

// Client (Клиент)

func (s *Storage) CreateClient(ctx context.Context, c *models.Client) error {
	defer s.track("insert", "clients")()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = "active"
	}
	query := `
        INSERT INTO clients (id, user_id, name, email, phone, company, address, notes, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Company, c.Address, c.Notes, c.Status).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	return apperr.Storage("create client", err)
}

func (s *Storage) GetClients(ctx context.Context, userID string) ([]models.Client, error) {
	defer s.track("select", "clients")()
	clients := []models.Client{}
	query := `SELECT * FROM clients WHERE user_id = $1 ORDER BY name ASC`
	if err := s.db.SelectContext(ctx, &clients, query, userID); err != nil {
		return nil, apperr.Storage("list clients", err)
	}
	return clients, nil
}

// Enquiry (Заявка)

// CreateEnquiry присваивает id и код BMC-MMYY-#### (порядковый номер внутри месяца
// для владельца). Клиент, если указан, должен принадлежать тому же владельцу.
func (s *Storage) CreateEnquiry(ctx context.Context, e *models.Enquiry, now time.Time) error {
	defer s.track("insert", "enquiries")()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Stage == "" {
		e.Stage = "enquiry"
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	return s.withTx(ctx, "create enquiry", func(tx *sqlx.Tx) error {
		if err := lockOwner(ctx, tx, "enquiry-code", e.UserID); err != nil {
			return err
		}
		if e.ClientID != nil {
			var n int
			err := tx.GetContext(ctx, &n,
				`SELECT COUNT(1) FROM clients WHERE id = $1 AND user_id = $2`, *e.ClientID, e.UserID)
			if err != nil {
				return err
			}
			if n == 0 {
				return apperr.ErrNotFound
			}
		}

		var count int
		err := tx.GetContext(ctx, &count,
			`SELECT COUNT(1) FROM enquiries WHERE user_id = $1 AND created_at >= $2`, e.UserID, monthStart)
		if err != nil {
			return err
		}
		e.Code = models.EnquiryCode(now, count+1)

		query := `
            INSERT INTO enquiries (id, user_id, client_id, code, job_name, description, stage, due_date, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
            RETURNING created_at, updated_at`
		return tx.QueryRowContext(ctx, query,
			e.ID, e.UserID, e.ClientID, e.Code, e.JobName, e.Description, e.Stage, e.DueDate, now).
			Scan(&e.CreatedAt, &e.UpdatedAt)
	})
}

// GetEnquiry ищет заявку только среди заявок владельца
func (s *Storage) GetEnquiry(ctx context.Context, userID, enquiryID string) (*models.Enquiry, error) {
	defer s.track("select", "enquiries")()
	e := &models.Enquiry{}
	query := `SELECT ` + enquiryColumns + ` FROM enquiries WHERE id = $1 AND user_id = $2`
	if err := s.db.GetContext(ctx, e, query, enquiryID, userID); err != nil {
		return nil, apperr.Storage("get enquiry", notFound(err))
	}
	return e, nil
}

func (s *Storage) GetEnquiries(ctx context.Context, userID string, limit, offset int) ([]models.Enquiry, error) {
	defer s.track("select", "enquiries")()
	enquiries := []models.Enquiry{}
	query := `
        SELECT ` + enquiryColumns + `
        FROM enquiries
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	if err := s.db.SelectContext(ctx, &enquiries, query, userID, limit, offset); err != nil {
		return nil, apperr.Storage("list enquiries", err)
	}
	return enquiries, nil
}

// Schedule (Задача)

func createSchedule(ctx context.Context, ext sqlx.ExtContext, t *models.Schedule) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
        INSERT INTO schedules (id, user_id, enquiry_id, title, description, status, priority, start_date, end_date, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING created_at`
	return ext.QueryRowxContext(ctx, query,
		t.ID, t.UserID, t.EnquiryID, t.Title, t.Description, t.Status, t.Priority, t.StartDate, t.EndDate, t.Notes).
		Scan(&t.CreatedAt)
}

func (s *Storage) CreateSchedule(ctx context.Context, t *models.Schedule) error {
	defer s.track("insert", "schedules")()
	return apperr.Storage("create schedule", createSchedule(ctx, s.db, t))
}

func (s *Storage) GetSchedulesForEnquiry(ctx context.Context, userID, enquiryID string) ([]models.Schedule, error) {
	defer s.track("select", "schedules")()
	schedules := []models.Schedule{}
	query := `
        SELECT * FROM schedules
        WHERE user_id = $1 AND enquiry_id = $2
        ORDER BY start_date ASC, created_at ASC`
	if err := s.db.SelectContext(ctx, &schedules, query, userID, enquiryID); err != nil {
		return nil, apperr.Storage("list schedules", err)
	}
	return schedules, nil
}
