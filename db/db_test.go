package db_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"brigadez/db"
	"brigadez/db/migrations"
	"brigadez/internal/apperr"
	"brigadez/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Интеграционные тесты идут против настоящего Postgres, если задан POSTGRES_TEST_CONN.
func newStorage(t *testing.T) *db.Storage {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_CONN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_CONN is not set")
	}
	conn, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, migrations.Run(conn.DB, zap.NewNop()))
	return db.NewStorage(conn, zap.NewNop(), time.Second)
}

func newEnquiry(t *testing.T, s *db.Storage, userID string) *models.Enquiry {
	t.Helper()
	e := &models.Enquiry{UserID: userID, JobName: "Loft conversion"}
	require.NoError(t, s.CreateEnquiry(context.Background(), e, time.Now()))
	return e
}

func TestCreateEnquiryCodes(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	user := uuid.New().String()

	client := &models.Client{UserID: user, Name: "Acme Roofing"}
	require.NoError(t, s.CreateClient(ctx, client))

	now := time.Now()
	first := &models.Enquiry{UserID: user, ClientID: &client.ID, JobName: "Roof"}
	require.NoError(t, s.CreateEnquiry(ctx, first, now))
	second := &models.Enquiry{UserID: user, JobName: "Gutter"}
	require.NoError(t, s.CreateEnquiry(ctx, second, now))

	require.Equal(t, models.EnquiryCode(now, 1), first.Code)
	require.Equal(t, models.EnquiryCode(now, 2), second.Code)

	foreign := &models.Enquiry{UserID: uuid.New().String(), ClientID: &client.ID, JobName: "x"}
	require.ErrorIs(t, s.CreateEnquiry(ctx, foreign, now), apperr.ErrNotFound)

	got, err := s.GetEnquiry(ctx, user, first.ID)
	require.NoError(t, err)
	require.Equal(t, "Roof", got.JobName)
	require.False(t, got.IsPriority)

	_, err = s.GetEnquiry(ctx, uuid.New().String(), first.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPriorityRanks(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	user := uuid.New().String()
	a, b, c := newEnquiry(t, s, user), newEnquiry(t, s, user), newEnquiry(t, s, user)

	for i, e := range []*models.Enquiry{a, b, c} {
		got, err := s.MarkPriority(ctx, user, e.ID, []string{"work"})
		require.NoError(t, err)
		require.Equal(t, i+1, *got.PriorityRank)
	}

	// повторная пометка сохраняет ранг
	got, err := s.MarkPriority(ctx, user, b.ID, []string{"drawing", "quote"})
	require.NoError(t, err)
	require.Equal(t, 2, *got.PriorityRank)
	require.Equal(t, []string{"drawing", "quote"}, []string(got.PriorityTypes))

	cleared, err := s.ClearPriority(ctx, user, b.ID)
	require.NoError(t, err)
	require.False(t, cleared.IsPriority)
	require.Nil(t, cleared.PriorityRank)
	require.Nil(t, cleared.PriorityTypes)

	got, err = s.MarkPriority(ctx, user, b.ID, []string{"work"})
	require.NoError(t, err)
	require.Equal(t, 4, *got.PriorityRank)

	list, err := s.ListPriority(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, a.ID, list[0].ID)
	require.Equal(t, "Unknown", list[0].ClientName)

	_, err = s.MarkPriority(ctx, uuid.New().String(), a.ID, []string{"work"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentMarkPriority(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	user := uuid.New().String()

	const n = 10
	ids := make([]string, n)
	for i := range ids {
		ids[i] = newEnquiry(t, s, user).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.MarkPriority(ctx, user, id, []string{"quote"})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := s.ListPriority(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, n)
	for i, item := range list {
		require.Equal(t, i+1, *item.PriorityRank)
	}
}

func TestReorderPriority(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	user := uuid.New().String()
	a, b := newEnquiry(t, s, user), newEnquiry(t, s, user)
	plain := newEnquiry(t, s, user)
	for _, e := range []*models.Enquiry{a, b} {
		_, err := s.MarkPriority(ctx, user, e.ID, []string{"work"})
		require.NoError(t, err)
	}

	n, err := s.ReorderPriority(ctx, user, []models.ReorderItem{{EnquiryID: a.ID, NewRank: 2}, {EnquiryID: b.ID, NewRank: 1}})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	list, err := s.ListPriority(ctx, user)
	require.NoError(t, err)
	require.Equal(t, b.ID, list[0].ID)
	require.Equal(t, a.ID, list[1].ID)

	// не приоритетная заявка откатывает весь reorder
	_, err = s.ReorderPriority(ctx, user, []models.ReorderItem{{EnquiryID: a.ID, NewRank: 1}, {EnquiryID: plain.ID, NewRank: 2}})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	list, err = s.ListPriority(ctx, user)
	require.NoError(t, err)
	require.Equal(t, b.ID, list[0].ID)

	ok, err := s.SetPriorityRank(ctx, user, plain.ID, 5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReorderRejectsRankHeldOutsideRequest(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	user := uuid.New().String()
	a, b, c := newEnquiry(t, s, user), newEnquiry(t, s, user), newEnquiry(t, s, user)
	for _, e := range []*models.Enquiry{a, b, c} {
		_, err := s.MarkPriority(ctx, user, e.ID, []string{"work"})
		require.NoError(t, err)
	}

	// ранг 3 уже у c, которой нет в запросе
	_, err := s.ReorderPriority(ctx, user, []models.ReorderItem{{EnquiryID: a.ID, NewRank: 3}})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "items", ve.Field)

	list, err := s.ListPriority(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, e := range []*models.Enquiry{a, b, c} {
		require.Equal(t, e.ID, list[i].ID)
		require.Equal(t, i+1, *list[i].PriorityRank)
	}

	// свободный ранг для подмножества разрешён
	n, err := s.ReorderPriority(ctx, user, []models.ReorderItem{{EnquiryID: a.ID, NewRank: 10}})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	list, err = s.ListPriority(ctx, user)
	require.NoError(t, err)
	require.Equal(t, a.ID, list[2].ID)
}

func TestToggleEveryCheckpoint(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	e := newEnquiry(t, s, uuid.New().String())

	for _, c := range models.Checkpoints {
		value, err := s.ToggleCheckpoint(ctx, e.ID, c, "user-"+string(c), time.Now())
		require.NoError(t, err)
		require.True(t, value, string(c))
	}

	m, err := s.GetMilestone(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, m.QuoteGiven)
	require.Equal(t, "user-quote_given", *m.QuoteGivenBy)
	require.True(t, m.AdvanceInvoiceGiven)
	require.Equal(t, "user-advance_invoice_given", *m.AdvanceInvoiceGivenBy)
	require.True(t, m.AdvanceInvoiceCredited)
	require.Equal(t, "user-advance_invoice_credited", *m.AdvanceInvoiceCreditedBy)
	require.True(t, m.WorkStarted)
	require.Equal(t, "user-work_started", *m.WorkStartedBy)
	require.True(t, m.WorkCompleted)
	require.Equal(t, "user-work_completed", *m.WorkCompletedBy)
	require.True(t, m.RectificationRequired)
	require.Equal(t, "user-rectification_required", *m.RectificationRequiredBy)
	require.NotNil(t, m.RectificationRequiredAt)
}

func TestToggleCheckpoint(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	user := uuid.New().String()
	e := newEnquiry(t, s, user)

	m, err := s.GetMilestone(ctx, e.ID)
	require.NoError(t, err)
	require.Nil(t, m)

	value, err := s.ToggleCheckpoint(ctx, e.ID, models.WorkStarted, "user-42", time.Now())
	require.NoError(t, err)
	require.True(t, value)

	m, err = s.GetMilestone(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, m.WorkStarted)
	require.Equal(t, "user-42", *m.WorkStartedBy)
	require.NotNil(t, m.WorkStartedAt)
	require.False(t, m.QuoteGiven)

	value, err = s.ToggleCheckpoint(ctx, e.ID, models.WorkStarted, "user-7", time.Now())
	require.NoError(t, err)
	require.False(t, value)

	m, err = s.GetMilestone(ctx, e.ID)
	require.NoError(t, err)
	require.False(t, m.WorkStarted)
	require.Nil(t, m.WorkStartedAt)
	require.Nil(t, m.WorkStartedBy)
	require.Equal(t, "user-7", *m.UpdatedBy)
}

func TestRectification(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	user := uuid.New().String()
	e := newEnquiry(t, s, user)

	require.NoError(t, s.SetRectificationNote(ctx, e.ID, "leak", user, time.Now()))
	m, err := s.GetMilestone(ctx, e.ID)
	require.NoError(t, err)
	require.False(t, m.RectificationRequired)
	require.Equal(t, "leak", *m.RectificationNote)

	now := time.Now()
	enquiryID := e.ID
	task := &models.Schedule{
		UserID:    user,
		EnquiryID: &enquiryID,
		Title:     "Rectification Work",
		Status:    models.ScheduleStatusScheduled,
		Priority:  models.SchedulePriorityHigh,
		StartDate: now,
		EndDate:   now.Add(7 * 24 * time.Hour),
	}
	require.NoError(t, s.FlagRectification(ctx, e.ID, "cracked render", user, now, task))

	m, err = s.GetMilestone(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, m.RectificationRequired)
	require.Equal(t, "cracked render", *m.RectificationNote)

	schedules, err := s.GetSchedulesForEnquiry(ctx, user, e.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, task.ID, schedules[0].ID)
	require.Equal(t, models.SchedulePriorityHigh, schedules[0].Priority)
}
